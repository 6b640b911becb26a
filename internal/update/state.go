package update

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/projection"
	"github.com/sandeepkv93/listo/internal/storage"
)

const (
	preferenceView         = storage.PrefView
	preferenceCalendarMode = storage.PrefCalendarMode
	preferenceDateFilter   = storage.PrefDateFilter
	preferenceStatusFilter = storage.PrefStatusFilter
	preferenceEmail        = storage.PrefUserEmail
)

func (m *Model) savePreference(key, value string) {
	if m.repo == nil {
		return
	}
	ctx := context.Background()
	var err error
	if strings.TrimSpace(value) == "" {
		err = m.repo.DeletePreference(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			err = nil
		}
	} else {
		err = m.repo.SetPreference(ctx, key, value)
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("save preference")
	}
}

// restorePreferences applies the view, calendar mode and list filters saved
// by a previous run. Unknown values are ignored.
func (m *Model) restorePreferences() {
	if m.repo == nil {
		return
	}
	prefs, err := m.repo.ListPreferences(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("load preferences")
		return
	}
	for _, p := range prefs {
		switch p.Key {
		case preferenceView:
			if v := View(p.Value); isKnownView(v) && v != ViewLogin {
				m.CurrentView = v
			}
		case preferenceCalendarMode:
			if g, err := projection.ParseGranularity(p.Value); err == nil {
				m.Calendar.Mode = g
			}
		case preferenceDateFilter:
			if f, err := projection.ParseDateFilter(p.Value); err == nil {
				m.Criteria.Date = f
			}
		case preferenceStatusFilter:
			if s, err := model.ParseStatus(p.Value); err == nil {
				m.Criteria.Status = s
			}
		}
	}
	m.pruneReminders()
}

// landingView is the screen shown after signing in.
func (m Model) landingView() View {
	if m.repo != nil {
		if v, err := m.repo.GetPreference(context.Background(), preferenceView); err == nil {
			if view := View(v); isKnownView(view) && view != ViewLogin {
				return view
			}
		}
	}
	return ViewDashboard
}
