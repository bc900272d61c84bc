// Package sampledata generates a synthetic but plausible branch history for
// demos, the CLI and tests.
package sampledata

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/pkg/logger"
)

// Member mix, as fractions of all members.
const (
	leaderShare      = 0.10
	seekerShare      = 0.25
	groupShare       = 0.45
	volunteerShare   = 0.30
	firstTimerShare  = 0.05
	archivedShare    = 0.05
	elevateShare     = 0.60
	servingShare     = 0.50
	specialTurnout   = 0.70
	minRegularity    = 0.20
	regularitySpread = 0.75
)

var (
	firstNames = []string{"Ana", "Ben", "Carla", "Dan", "Ella", "Felix", "Grace", "Hugo", "Iris", "Jon", "Kara", "Leo", "Mia", "Noel", "Olga", "Paul"}
	lastNames  = []string{"Reyes", "Santos", "Cruz", "Garcia", "Lim", "Tan", "Bautista", "Mendoza", "Ramos", "Aquino"}
	ministries = []string{"Worship", "Media", "Ushering", "Kids", "Production", "Hospitality"}
	specials   = []string{"Anniversary", "Easter Celebration", "Youth Camp Night", "Christmas Service", "Prayer Summit"}
)

type generator struct {
	cfg Config
	rng *rand.Rand
	ns  uuid.UUID

	regularity map[string]float64
}

// Generate builds a snapshot from cfg. The output depends only on cfg.
func Generate(ctx context.Context, cfg Config) model.Snapshot {
	cfg = cfg.withDefaults()
	g := &generator{
		cfg:        cfg,
		rng:        rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5eed)),
		ns:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("shepherd-sample-%d", cfg.Seed))),
		regularity: make(map[string]float64, cfg.Members),
	}

	members := g.members()
	events := g.events()
	attendance := g.attendance(members, events)

	logger.Get().Info(ctx, "generated sample history",
		logger.Int("members", len(members)),
		logger.Int("events", len(events)),
		logger.Int("checkIns", len(attendance)),
		logger.Int("years", cfg.Years))

	return model.Snapshot{Events: events, Attendance: attendance, Members: members}
}

func (g *generator) id(kind string, i int) string {
	return uuid.NewSHA1(g.ns, []byte(fmt.Sprintf("%s-%d", kind, i))).String()
}

func (g *generator) pick(from []string) string {
	return from[g.rng.IntN(len(from))]
}

func (g *generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *generator) members() []model.Member {
	out := make([]model.Member, 0, g.cfg.Members)
	leaders := make([]string, 0)

	for i := 0; i < g.cfg.Members; i++ {
		m := model.Member{
			ID:        g.id("member", i),
			FirstName: g.pick(firstNames),
			LastName:  g.pick(lastNames),
			Gender:    "Male",
			Status:    model.StatusActive,
		}
		if g.chance(0.5) {
			m.Gender = "Female"
		}
		m.FinalTags.AgeCategory = "B1G"
		if g.chance(elevateShare) {
			m.FinalTags.AgeCategory = "Elevate"
		}

		switch {
		case i == 0 || g.chance(leaderShare):
			m.FinalTags.IsDgroupLeader = true
			leaders = append(leaders, m.FullName())
		case g.chance(seekerShare):
			m.FinalTags.IsSeeker = true
			if len(leaders) > 0 && g.chance(groupShare) {
				m.DgroupLeader = leaders[g.rng.IntN(len(leaders))]
			}
		case len(leaders) > 0 && g.chance(groupShare):
			m.DgroupLeader = leaders[g.rng.IntN(len(leaders))]
		}

		if g.chance(volunteerShare) {
			m.FinalTags.IsVolunteer = true
			m.FinalTags.VolunteerMinistry = []string{g.pick(ministries)}
			if g.chance(0.3) {
				m.FinalTags.VolunteerMinistry = append(m.FinalTags.VolunteerMinistry, g.pick(ministries))
			}
		}
		m.FinalTags.IsFirstTimer = g.chance(firstTimerShare)
		if g.chance(archivedShare) {
			m.Status = model.StatusArchived
		}

		g.regularity[m.ID] = minRegularity + g.rng.Float64()*regularitySpread
		out = append(out, m)
	}
	return out
}

// events schedules bi-weekly Saturday services over the configured years, with a
// special event on the Friday before every SpecialEvery-th service.
func (g *generator) events() []model.Event {
	end := g.cfg.End
	day := end.AddDate(-g.cfg.Years, 0, 1)
	for day.Weekday() != time.Saturday {
		day = day.AddDate(0, 0, 1)
	}

	var out []model.Event
	for n := 1; !day.After(end); n++ {
		if g.cfg.SpecialEvery > 0 && n%g.cfg.SpecialEvery == 0 {
			eve := day.AddDate(0, 0, -1)
			out = append(out, model.Event{
				ID:        g.id("special", n),
				Date:      eve.Format(model.DateLayout),
				EventType: model.EventTypeSpecial,
				Name:      g.pick(specials),
			})
		}
		out = append(out, model.Event{
			ID:        g.id("service", n),
			Date:      day.Format(model.DateLayout),
			EventType: model.EventTypeService,
			Name:      fmt.Sprintf("Elevate Service #%d", n),
		})
		day = day.AddDate(0, 0, 14)
	}
	return out
}

// attendance checks members in with their own regularity. Turnout grows over
// the history so the series has a visible trend.
func (g *generator) attendance(members []model.Member, events []model.Event) []model.Attendance {
	var out []model.Attendance
	for i, e := range events {
		at, _ := e.Time()
		progress := float64(i) / float64(max(len(events)-1, 1))
		turnout := 0.8 + 0.4*progress
		if e.EventType == model.EventTypeSpecial {
			turnout *= specialTurnout
		}

		for _, m := range members {
			if m.IsArchived() && progress > 0.5 {
				continue
			}
			if !g.chance(g.regularity[m.ID] * turnout) {
				continue
			}
			row := model.Attendance{
				MemberID:  m.ID,
				EventID:   e.ID,
				Date:      e.Date,
				Timestamp: model.NewTimestamp(at.Add(17*time.Hour + time.Duration(g.rng.IntN(90))*time.Minute)),
				Ministry:  model.MinistryNone,
			}
			if m.FinalTags.IsVolunteer && g.chance(servingShare) {
				row.Ministry = m.FinalTags.VolunteerMinistry[0]
			}
			out = append(out, row)
		}
	}
	return out
}
