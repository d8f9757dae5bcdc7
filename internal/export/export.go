// Package export renders contacts as vCard 3.0 and messages as CSV for the
// admin downloads.
package export

import (
	"fmt"
	"strings"
	"time"

	"ralph-xpert/internal/models"
)

const (
	frDate     = "02/01/2006"
	frDateTime = "02/01/2006 15:04:05"

	vcardOrg        = "Ralph Xpert Programme"
	vcardNote       = "Contact from Ralph Xpert WhatsApp visibility service - Registered on "
	vcardCategories = "Ralph Xpert,WhatsApp,Business"

	csvHeader = "Date,Nom,Email,Téléphone,Sujet,Message,Statut,ID"
)

// VCF renders one vCard per contact, separated by a blank line. The stored
// name keeps its " (RXP)" suffix.
func VCF(contacts []models.Contact, loc *time.Location) string {
	cards := make([]string, 0, len(contacts))
	for _, c := range contacts {
		var b strings.Builder
		b.WriteString("BEGIN:VCARD\n")
		b.WriteString("VERSION:3.0\n")
		fmt.Fprintf(&b, "FN:%s\n", c.Nom)
		fmt.Fprintf(&b, "TEL:%s\n", c.NumeroComplet)
		fmt.Fprintf(&b, "ORG:%s\n", vcardOrg)
		fmt.Fprintf(&b, "NOTE:%s%s\n", vcardNote, c.Timestamp.In(loc).Format(frDate))
		fmt.Fprintf(&b, "CATEGORIES:%s\n", vcardCategories)
		b.WriteString("END:VCARD")
		cards = append(cards, b.String())
	}
	return strings.Join(cards, "\n\n")
}

// MessagesCSV renders the messages table with a header row.
func MessagesCSV(messages []models.Message, loc *time.Location) string {
	lines := make([]string, 0, len(messages)+1)
	lines = append(lines, csvHeader)
	for _, m := range messages {
		telephone := m.Telephone
		if telephone == "" {
			telephone = "Non fourni"
		}
		status := "Non lu"
		if m.Read {
			status = "Lu"
		}
		lines = append(lines, strings.Join([]string{
			m.Timestamp.In(loc).Format(frDateTime),
			quote(m.Nom),
			m.Email,
			telephone,
			quote(m.Sujet),
			quote(m.Message),
			status,
			m.ID,
		}, ","))
	}
	return strings.Join(lines, "\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename builds the attachment name, e.g. ralph_xpert_contacts_2025-03-14.vcf.
func Filename(kind, ext string, now time.Time) string {
	return fmt.Sprintf("ralph_xpert_%s_%s.%s", kind, now.UTC().Format("2006-01-02"), ext)
}
