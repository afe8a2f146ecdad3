package db

import (
	"bytes"
	"database/sql"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/jszwec/csvutil"
)

//go:embed states.csv
var statesCSV []byte

var stateCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// StateSeed is one row of the journey schedule CSV.
type StateSeed struct {
	WeekNumber int    `csv:"week"`
	Code       string `csv:"code"`
	Name       string `csv:"name"`
	Capital    string `csv:"capital,omitempty"`
	Region     string `csv:"region,omitempty"`
}

// DefaultStateSeeds returns the built-in 50 state schedule.
func DefaultStateSeeds() ([]StateSeed, error) {
	return LoadStateSeeds(bytes.NewReader(statesCSV))
}

// LoadStateSeeds parses a schedule CSV with a week,code,name[,capital,region] header.
// Codes and week numbers must be unique; codes are two upper-case letters.
func LoadStateSeeds(r io.Reader) ([]StateSeed, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("schedule CSV is empty")
		}
		return nil, fmt.Errorf("failed to read schedule header: %w", err)
	}

	var seeds []StateSeed
	codes := make(map[string]bool)
	weeks := make(map[int]bool)
	for line := 2; ; line++ {
		var s StateSeed
		if err := dec.Decode(&s); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("schedule line %d: %w", line, err)
		}

		if !stateCodePattern.MatchString(s.Code) {
			return nil, fmt.Errorf("schedule line %d: invalid state code %q", line, s.Code)
		}
		if s.Name == "" {
			return nil, fmt.Errorf("schedule line %d: state %s has no name", line, s.Code)
		}
		if s.WeekNumber <= 0 {
			return nil, fmt.Errorf("schedule line %d: week %d is not positive", line, s.WeekNumber)
		}
		if codes[s.Code] {
			return nil, fmt.Errorf("schedule line %d: duplicate state code %s", line, s.Code)
		}
		if weeks[s.WeekNumber] {
			return nil, fmt.Errorf("schedule line %d: duplicate week %d", line, s.WeekNumber)
		}
		codes[s.Code] = true
		weeks[s.WeekNumber] = true

		seeds = append(seeds, s)
	}

	return seeds, nil
}

// SeedFixtures populates the database with development fixtures: digest
// subscribers, a week of reviews for the first state, and two posts.
// The journey itself must already be seeded.
func SeedFixtures(database *sql.DB, now time.Time) error {
	now = now.UTC()

	var firstCode string
	err := database.QueryRow("SELECT code FROM states ORDER BY week_number LIMIT 1").Scan(&firstCode)
	if err == sql.ErrNoRows {
		return fmt.Errorf("seed fixtures: journey has no states, run journey seed first")
	}
	if err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}

	subscribers := []struct{ id, email, name string }{
		{"SUB-001", "hops@example.com", "Hop Head"},
		{"SUB-002", "malt@example.com", "Malt Fan"},
		{"SUB-003", "yeast@example.com", ""},
	}
	for _, s := range subscribers {
		var name sql.NullString
		if s.name != "" {
			name = sql.NullString{String: s.name, Valid: true}
		}
		if _, err := database.Exec(
			"INSERT INTO subscribers (id, email, name, status, created_at) VALUES (?, ?, ?, 'active', ?)",
			s.id, s.email, name, now,
		); err != nil {
			return fmt.Errorf("seed subscribers: %w", err)
		}
	}

	beers := []struct{ name, brewery, style string }{
		{"Snake Handler", "Good People Brewing", "Double IPA"},
		{"Ghost Train", "Cahaba Brewing", "Pale Ale"},
		{"Bearded Seal", "Avondale Brewing", "Stout"},
		{"Monkeynaut", "Straight to Ale", "IPA"},
		{"Naked Pig", "Back Forty", "Pale Ale"},
		{"Darkside", "Trim Tab", "Porter"},
		{"Front Porch", "Yellowhammer", "Wheat"},
	}
	for i, b := range beers {
		if _, err := database.Exec(
			"INSERT INTO reviews (id, state_code, day_number, beer_name, brewery, style, status) VALUES (?, ?, ?, ?, ?, ?, 'draft')",
			fmt.Sprintf("REV-%s-%d", firstCode, i+1), firstCode, i+1, b.name, b.brewery, b.style,
		); err != nil {
			return fmt.Errorf("seed reviews: %w", err)
		}
	}

	posts := []struct {
		id, content string
		age         time.Duration
	}{
		{"POST-001", "The journey begins next week. 50 states, 50 weeks.", 20 * 24 * time.Hour},
		{"POST-002", "Week one preview: what is brewing in " + firstCode + "?", 2 * 24 * time.Hour},
	}
	for _, p := range posts {
		if _, err := database.Exec(
			"INSERT INTO posts (id, state_code, platform, content, status, created_at) VALUES (?, ?, 'instagram', ?, 'posted', ?)",
			p.id, firstCode, p.content, now.Add(-p.age),
		); err != nil {
			return fmt.Errorf("seed posts: %w", err)
		}
	}

	return nil
}
