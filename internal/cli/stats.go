package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Contacts:        %d (%d today)\n", s.TotalContacts, s.TodayContacts)
			fmt.Fprintf(w, "Messages:        %d (%d today)\n", s.TotalMessages, s.TodayMessages)
			fmt.Fprintf(w, "Unread messages: %d\n", s.NewMessages)
			fmt.Fprintf(w, "Read rate:       %d%%\n", s.ReadRate)
			fmt.Fprintf(w, "Goal progress:   %d%%\n", s.ObjectifPourcent)
			if len(s.RecentEntries) > 0 {
				fmt.Fprintln(w, "\nRecent signups:")
				for _, r := range s.RecentEntries {
					fmt.Fprintf(w, "- %s  %s\n", r.Nom, r.Numero)
				}
			}
			return nil
		},
	}
}
