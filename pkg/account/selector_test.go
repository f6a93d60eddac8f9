package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

var (
	north = models.AccountGroup{ID: "acc-north", Name: "North"}
	south = models.AccountGroup{ID: "acc-south", Name: "South"}
)

func TestSelector_Initial(t *testing.T) {
	s := NewSelector()
	assert.Equal(t, Default.ID, s.SelectedID())
	assert.Equal(t, Default, s.Selected())
	assert.Equal(t, []models.AccountGroup{Default}, s.Accounts())
}

func TestSelector_Sync(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		accounts []models.AccountGroup
		want     string
	}{
		{"empty set points at default", "acc-north", nil, Default.ID},
		{"default kept on empty set", Default.ID, nil, Default.ID},
		{"stale selection picks first", "gone", []models.AccountGroup{north, south}, "acc-north"},
		{"default is not a member", Default.ID, []models.AccountGroup{south, north}, "acc-south"},
		{"member selection unchanged", "acc-south", []models.AccountGroup{north, south}, "acc-south"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector()
			s.SetSelected(models.AccountGroup{ID: tt.start})
			s.Sync(tt.accounts)
			assert.Equal(t, tt.want, s.SelectedID())
		})
	}
}

func TestSelector_ResyncToDisjointSetPicksFirst(t *testing.T) {
	a := models.AccountGroup{ID: "acc-a", Name: "A"}
	b := models.AccountGroup{ID: "acc-b", Name: "B"}
	c := models.AccountGroup{ID: "acc-c", Name: "C"}
	d := models.AccountGroup{ID: "acc-d", Name: "D"}

	s := NewSelector()
	s.Sync([]models.AccountGroup{a, b})
	s.SetSelected(b)
	require.Equal(t, b, s.Selected())

	s.Sync([]models.AccountGroup{c, d})
	assert.Equal(t, c.ID, s.SelectedID())
	assert.Equal(t, c, s.Selected())
	assert.Equal(t, []models.AccountGroup{c, d}, s.Accounts())
}

func TestSelector_SelectedFallsBackOnStalePointer(t *testing.T) {
	s := NewSelector()
	s.Sync([]models.AccountGroup{north, south})

	s.SetSelected(models.AccountGroup{ID: "elsewhere"})
	assert.Equal(t, "elsewhere", s.SelectedID(), "no membership validation")
	assert.Equal(t, north, s.Selected())
}

func TestSelector_SelectByID(t *testing.T) {
	s := NewSelector()
	s.Sync([]models.AccountGroup{north, south})

	require.NoError(t, s.SelectByID("acc-south"))
	assert.Equal(t, south, s.Selected())

	err := s.SelectByID("missing")
	require.ErrorIs(t, err, ErrUnknownAccount)
	assert.Equal(t, "acc-south", s.SelectedID())
}

func TestSelector_Subscribe(t *testing.T) {
	s := NewSelector()
	var seen []string
	unsubscribe := s.Subscribe(func(a models.AccountGroup) { seen = append(seen, a.ID) })

	s.Sync([]models.AccountGroup{north})
	s.SetSelected(south)
	unsubscribe()
	s.Sync(nil)

	// south is not in the set, so Selected falls back to north
	assert.Equal(t, []string{"acc-north", "acc-north"}, seen)
}

func TestSelector_AccountsReturnsCopy(t *testing.T) {
	s := NewSelector()
	s.Sync([]models.AccountGroup{north})
	got := s.Accounts()
	got[0].Name = "mutated"
	assert.Equal(t, "North", s.Accounts()[0].Name)
}
