package memory

import (
	"fmt"
	"math"
	"time"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

// Demo accounts created by Seed.
const (
	SeedAdminID       = "user-admin"
	SeedAdminEmail    = "admin@example.com"
	SeedAdminPassword = "admin123"

	SeedCoachID       = "user-coach"
	SeedCoachEmail    = "coach@example.com"
	SeedCoachPassword = "coach123"

	SeedStudentID       = "user-student"
	SeedStudentEmail    = "student@example.com"
	SeedStudentPassword = "student123"
)

type SeedOptions struct {
	Students         int
	TradesPerStudent int
	// PasswordCost is the bcrypt cost for seeded accounts; zero uses the default.
	PasswordCost int
	// Now anchors created_at for generated trades; zero uses the current time.
	Now time.Time
}

type instrument struct {
	asset string
	entry float64
	tick  float64
}

var (
	seedInstruments = []instrument{
		{"EURUSD", 1.0850, 0.0001},
		{"GBPUSD", 1.2650, 0.0001},
		{"USDJPY", 151.20, 0.01},
		{"XAUUSD", 2350.0, 0.1},
		{"BTCUSD", 64000, 1},
		{"NAS100", 18200, 1},
	}
	seedDirections = []entity.Direction{entity.DirectionLong, entity.DirectionShort}
	// stop distance in ticks
	seedStops = []float64{20, 25, 30, 40}
	// exit distance in ticks, signed in the trade's favour
	seedExits   = []float64{40, -25, 60, 15, -30, 80, 0}
	seedPlanned = []float64{1.5, 2, 2.5, 3}
	seedStrats  = []string{"Breakout", "Pullback", "Range", "Trend Follow", "News"}
	seedMoods   = []string{"Calm", "Confident", "Anxious", "FOMO", "Neutral"}
)

const seedChart = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

// Seed fills an empty store with deterministic demo data: fixed admin, coach and base
// student accounts plus opts.Students synthetic students. Every student gets
// opts.TradesPerStudent trades.
func Seed(s *Store, opts SeedOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = s.now()
	}
	hash := func(plain string) (string, error) { return helpers.HashPasswordCost(plain, opts.PasswordCost) }

	adminHash, err := hash(SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	coachHash, err := hash(SeedCoachPassword)
	if err != nil {
		return fmt.Errorf("hash coach password: %w", err)
	}
	studentHash, err := hash(SeedStudentPassword)
	if err != nil {
		return fmt.Errorf("hash student password: %w", err)
	}

	users := []*entity.User{
		{ID: SeedAdminID, Name: "Admin", Email: SeedAdminEmail, PasswordHash: adminHash, Role: entity.RoleAdmin, Status: entity.UserStatusApproved},
		{ID: SeedCoachID, Name: "Coach", Email: SeedCoachEmail, PasswordHash: coachHash, Role: entity.RoleCoach, Status: entity.UserStatusApproved},
		{ID: SeedStudentID, Name: "Student", Email: SeedStudentEmail, PasswordHash: studentHash, Role: entity.RoleStudent, Status: entity.UserStatusApproved},
	}
	for i := 1; i <= opts.Students; i++ {
		users = append(users, &entity.User{
			ID:           fmt.Sprintf("user-student-%02d", i),
			Name:         fmt.Sprintf("Student %02d", i),
			Email:        fmt.Sprintf("student%d@example.com", i),
			PasswordHash: studentHash,
			Role:         entity.RoleStudent,
			Status:       entity.UserStatusApproved,
		})
	}
	base := now.Add(-90 * 24 * time.Hour)
	for i, u := range users {
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		u.UpdatedAt = u.CreatedAt
	}

	var trades []*entity.Trade
	for si, u := range users {
		if u.Role != entity.RoleStudent {
			continue
		}
		for j := 0; j < opts.TradesPerStudent; j++ {
			trades = append(trades, seedTrade(u.ID, si, j, now))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, users...)
	s.trades = append(s.trades, trades...)
	return nil
}

func seedTrade(ownerID string, si, j int, now time.Time) *entity.Trade {
	n := si + j
	ins := seedInstruments[n%len(seedInstruments)]
	dir := seedDirections[n%len(seedDirections)]
	sign := 1.0
	if dir == entity.DirectionShort {
		sign = -1
	}
	stop := seedStops[j%len(seedStops)] * ins.tick
	move := seedExits[(si*3+j)%len(seedExits)] * ins.tick
	planned := seedPlanned[j%len(seedPlanned)]

	entry := ins.entry
	sl := round(entry-sign*stop, ins.tick)
	tp := round(entry+sign*stop*planned, ins.tick)
	exit := round(entry+sign*move, ins.tick)
	actual := math.Round((exit-entry)/math.Abs(entry-sl)*100) / 100
	strategy := seedStrats[j%len(seedStrats)]
	emotion := seedMoods[(si+j)%len(seedMoods)]

	created := now.Add(-time.Duration(j)*24*time.Hour - time.Duration(si)*time.Hour)
	t := &entity.Trade{
		ID:          fmt.Sprintf("trade-%s-%03d", ownerID, j+1),
		UserID:      ownerID,
		Asset:       ins.asset,
		Direction:   dir,
		Entry:       entry,
		SL:          sl,
		TP:          &tp,
		Exit:        &exit,
		Status:      entity.TradeStatusPending,
		Strategy:    &strategy,
		Emotion:     &emotion,
		PlannedR:    &planned,
		ActualR:     &actual,
		DisplayUnit: entity.DefaultDisplayUnit,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if j%3 == 2 {
		reviewer := SeedCoachID
		feedback := "Entry matched the plan; tighten the stop next time."
		t.Status = entity.TradeStatusReviewed
		t.ReviewedBy = &reviewer
		t.Feedback = &feedback
	}
	if j%4 == 0 {
		before, after := seedChart, seedChart
		t.ChartBeforeURL = &before
		t.ChartAfterURL = &after
	}
	return t
}

func round(v, tick float64) float64 {
	return math.Round(v/tick) * tick
}
