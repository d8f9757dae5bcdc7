package leads

import (
	"math"
	"sort"
	"strings"
	"time"

	"ralph-xpert/internal/models"
)

// Message filters accepted by FilterMessages.
const (
	FilterAll    = "all"
	FilterUnread = "unread"
	FilterRead   = "read"
	FilterToday  = "today"
)

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// FilterMessages applies the dashboard search box and read filter. Unknown
// filters behave like "all".
func FilterMessages(messages []models.Message, term, filter string, now time.Time, loc *time.Location) []models.Message {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []models.Message{}
	for _, m := range messages {
		if term != "" &&
			!strings.Contains(strings.ToLower(m.Nom), term) &&
			!strings.Contains(strings.ToLower(m.Email), term) &&
			!strings.Contains(strings.ToLower(m.Sujet), term) &&
			!strings.Contains(strings.ToLower(m.Message), term) {
			continue
		}
		switch filter {
		case FilterUnread:
			if m.Read {
				continue
			}
		case FilterRead:
			if !m.Read {
				continue
			}
		case FilterToday:
			if !SameDay(m.Timestamp, now, loc) {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// ComputeStats derives the homepage and dashboard counters.
func ComputeStats(contacts []models.Contact, messages []models.Message, now time.Time, loc *time.Location, goal int) models.Stats {
	st := models.Stats{
		TotalContacts: len(contacts),
		TotalMessages: len(messages),
		RecentEntries: []models.RecentEntry{},
	}

	for _, c := range contacts {
		if SameDay(c.Timestamp, now, loc) {
			st.TodayContacts++
		}
	}
	for _, m := range messages {
		if m.Read {
			st.ReadMessages++
		} else {
			st.NewMessages++
		}
		if SameDay(m.Timestamp, now, loc) {
			st.TodayMessages++
		}
	}
	st.ReadRate = percent(st.ReadMessages, st.TotalMessages)

	if goal <= 0 {
		goal = DefaultMemberGoal
	}
	st.ObjectifPourcent = percent(st.TotalContacts, goal)
	if st.ObjectifPourcent > 100 {
		st.ObjectifPourcent = 100
	}

	recent := make([]models.Contact, len(contacts))
	copy(recent, contacts)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > 3 {
		recent = recent[:3]
	}
	for _, c := range recent {
		st.RecentEntries = append(st.RecentEntries, models.RecentEntry{Nom: c.Nom, Numero: c.NumeroComplet})
	}
	return st
}
