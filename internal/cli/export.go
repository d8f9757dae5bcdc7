package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ralph-xpert/internal/export"
)

func exportCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "Export contacts or messages",
	}
	c.AddCommand(exportVCFCmd(e), exportCSVCmd(e))
	return c
}

// writeOutput writes to path, or to the command's stdout when path is "-".
func writeOutput(cmd *cobra.Command, path, content string) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if _, err := io.WriteString(w, content); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	}
	return nil
}

func exportVCFCmd(e *env) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "vcf",
		Short: "Write every contact as a vCard file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			contacts, err := svc.ListContacts(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = export.Filename("contacts", "vcf", svc.Now())
			}
			return writeOutput(cmd, out, export.VCF(contacts, svc.Location()))
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", `output file ("-" for stdout; default ralph_xpert_contacts_<date>.vcf)`)
	return cmd
}

func exportCSVCmd(e *env) *cobra.Command {
	var (
		out    string
		filter string
		query  string
	)

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write contact-form messages as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			messages, err := svc.Messages(cmd.Context(), query, filter)
			if err != nil {
				return err
			}
			if out == "" {
				out = export.Filename("messages", "csv", svc.Now())
			}
			return writeOutput(cmd, out, export.MessagesCSV(messages, svc.Location()))
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", `output file ("-" for stdout; default ralph_xpert_messages_<date>.csv)`)
	cmd.Flags().StringVar(&filter, "filter", "all", "all, unread, read or today")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only messages matching this text")
	return cmd
}
