package leads

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ralph-xpert/internal/models"
)

func sampleMessages() []models.Message {
	yesterday := testNow.Add(-24 * time.Hour)
	return []models.Message{
		{ID: "1", Nom: "Ama", Email: "ama@x.io", Sujet: "Tarifs", Message: "Combien ?", Timestamp: yesterday, Read: true},
		{ID: "2", Nom: "Bio", Email: "bio@x.io", Sujet: "Visibilité", Message: "Question sur le PROGRAMME", Timestamp: testNow.Add(-time.Hour)},
		{ID: "3", Nom: "Cé", Email: "ce@corp.io", Sujet: "Autre", Message: "Rien", Timestamp: testNow},
	}
}

func ids(list []models.Message) []string {
	out := []string{}
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}

func TestFilterMessages(t *testing.T) {
	msgs := sampleMessages()
	tests := []struct {
		name   string
		term   string
		filter string
		want   []string
	}{
		{"all", "", FilterAll, []string{"1", "2", "3"}},
		{"unknown filter", "", "bogus", []string{"1", "2", "3"}},
		{"unread", "", FilterUnread, []string{"2", "3"}},
		{"read", "", FilterRead, []string{"1"}},
		{"today", "", FilterToday, []string{"2", "3"}},
		{"term in body", "programme", FilterAll, []string{"2"}},
		{"term in email", "CORP", FilterAll, []string{"3"}},
		{"term in subject", "tarif", FilterAll, []string{"1"}},
		{"term and filter", "x.io", FilterUnread, []string{"2"}},
		{"no match", "zzz", FilterAll, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterMessages(msgs, tt.term, tt.filter, testNow, time.UTC)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSameDay_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	a := time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b, time.UTC))
	assert.False(t, SameDay(a, b, loc))
}

func TestComputeStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		st := ComputeStats(nil, nil, testNow, time.UTC, 2000)
		assert.Equal(t, 0, st.ReadRate)
		assert.Equal(t, 0, st.ObjectifPourcent)
		assert.NotNil(t, st.RecentEntries)
		assert.Empty(t, st.RecentEntries)
	})

	t.Run("rates round", func(t *testing.T) {
		msgs := []models.Message{{Read: true}, {Read: false}, {Read: false}}
		st := ComputeStats(nil, msgs, testNow, time.UTC, 2000)
		assert.Equal(t, 33, st.ReadRate)
		assert.Equal(t, 2, st.NewMessages)
	})

	t.Run("goal is capped", func(t *testing.T) {
		contacts := make([]models.Contact, 0, 30)
		for i := 0; i < 30; i++ {
			contacts = append(contacts, models.Contact{
				Nom:       fmt.Sprintf("C%d (RXP)", i),
				Timestamp: testNow.Add(-time.Duration(i) * 48 * time.Hour),
			})
		}
		st := ComputeStats(contacts, nil, testNow, time.UTC, 20)
		assert.Equal(t, 100, st.ObjectifPourcent)
		assert.Equal(t, 1, st.TodayContacts)

		st = ComputeStats(contacts, nil, testNow, time.UTC, 2000)
		assert.Equal(t, 2, st.ObjectifPourcent)
	})

	t.Run("recent entries newest first", func(t *testing.T) {
		contacts := []models.Contact{
			{Nom: "old", NumeroComplet: "1", Timestamp: testNow.Add(-3 * time.Hour)},
			{Nom: "newest", NumeroComplet: "2", Timestamp: testNow},
			{Nom: "mid", NumeroComplet: "3", Timestamp: testNow.Add(-time.Hour)},
			{Nom: "oldest", NumeroComplet: "4", Timestamp: testNow.Add(-10 * time.Hour)},
		}
		st := ComputeStats(contacts, nil, testNow, time.UTC, 2000)
		require.Len(t, st.RecentEntries, 3)
		assert.Equal(t, []models.RecentEntry{
			{Nom: "newest", Numero: "2"},
			{Nom: "mid", Numero: "3"},
			{Nom: "old", Numero: "1"},
		}, st.RecentEntries)
		assert.Equal(t, "old", contacts[0].Nom, "input is not reordered")
	})
}
