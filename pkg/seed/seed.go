package seed

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/arnavshah/kitchen-planner-go/pkg/planner"
	"gopkg.in/yaml.v3"
)

// File models a planner seed file
type File struct {
	Recipes   []string         `yaml:"recipes"`
	Extras    []string         `yaml:"extras"`
	Shifts    []ShiftSeed      `yaml:"shifts"`
	Recurring []RecurrenceSeed `yaml:"recurring"`
}

// ShiftSeed describes one shift
type ShiftSeed struct {
	Kind      string `yaml:"kind"`
	ServiceID string `yaml:"service_id"`
	Date      string `yaml:"date"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Location  string `yaml:"location"`
}

// RecurrenceSeed describes a series of preparatory shifts
type RecurrenceSeed struct {
	From     string   `yaml:"from"`
	To       string   `yaml:"to"`
	Start    string   `yaml:"start"`
	End      string   `yaml:"end"`
	Location string   `yaml:"location"`
	Days     []string `yaml:"days"`
	Group    bool     `yaml:"group"`
}

// Result lists what a seed created
type Result struct {
	TaskIDs  []string
	ShiftIDs []string
	GroupIDs []string
}

// Load reads and parses a seed file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes seed YAML, rejecting unknown fields
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Apply creates the seeded tasks and shifts in p
func (f *File) Apply(p *planner.Planner) (*Result, error) {
	res := &Result{}
	for _, desc := range f.Recipes {
		id, err := p.Tasks.AddRecipeTask(desc)
		if err != nil {
			return res, fmt.Errorf("recipe %q: %w", desc, err)
		}
		res.TaskIDs = append(res.TaskIDs, id)
	}
	for _, desc := range f.Extras {
		id, err := p.Tasks.AddExtraTask(desc)
		if err != nil {
			return res, fmt.Errorf("extra %q: %w", desc, err)
		}
		res.TaskIDs = append(res.TaskIDs, id)
	}

	for i, s := range f.Shifts {
		id, err := s.create(p.Shifts)
		if err != nil {
			return res, fmt.Errorf("shift #%d: %w", i+1, err)
		}
		res.ShiftIDs = append(res.ShiftIDs, id)
	}

	for i, r := range f.Recurring {
		ids, groupID, err := r.create(p.Shifts)
		if err != nil {
			return res, fmt.Errorf("recurring #%d: %w", i+1, err)
		}
		res.ShiftIDs = append(res.ShiftIDs, ids...)
		if groupID != "" {
			res.GroupIDs = append(res.GroupIDs, groupID)
		}
	}
	return res, nil
}

func (s ShiftSeed) create(shifts *planner.ShiftRegistry) (string, error) {
	date, err := models.ParseDate(s.Date)
	if err != nil {
		return "", err
	}
	start, err := models.ParseClock(s.Start)
	if err != nil {
		return "", err
	}
	end, err := models.ParseClock(s.End)
	if err != nil {
		return "", err
	}
	switch strings.ToUpper(s.Kind) {
	case "", string(models.ShiftPreparatory):
		return shifts.CreatePreparatoryShift(date, start, end, s.Location)
	case string(models.ShiftService):
		return shifts.CreateServiceShift(s.ServiceID, date, start, end, s.Location)
	}
	return "", fmt.Errorf("unknown shift kind %q", s.Kind)
}

func (r RecurrenceSeed) create(shifts *planner.ShiftRegistry) ([]string, string, error) {
	from, err := models.ParseDate(r.From)
	if err != nil {
		return nil, "", err
	}
	to, err := models.ParseDate(r.To)
	if err != nil {
		return nil, "", err
	}
	start, err := models.ParseClock(r.Start)
	if err != nil {
		return nil, "", err
	}
	end, err := models.ParseClock(r.End)
	if err != nil {
		return nil, "", err
	}
	days, err := models.ParseWeekdays(r.Days)
	if err != nil {
		return nil, "", err
	}
	ids, err := shifts.CreateRecurringShifts(from, to, start, end, r.Location, days)
	if err != nil || !r.Group || len(ids) == 0 {
		return ids, "", err
	}
	groupID, err := shifts.CreateShiftGroup(ids, true)
	return ids, groupID, err
}
