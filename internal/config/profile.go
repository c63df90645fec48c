package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"northwind-chat/internal/viz"
)

// Profile holds the user-facing strings and display limits. Every field has
// a built-in default so a missing or partial file is never an error.
type Profile struct {
	System string `yaml:"system"`
	Titles struct {
		Line string `yaml:"line"`
		Bar  string `yaml:"bar"`
		Pie  string `yaml:"pie"`
	} `yaml:"titles"`
	Table struct {
		MaxRows int `yaml:"max_rows"`
	} `yaml:"table"`
	Notice  string `yaml:"notice"`
	Apology string `yaml:"apology"`
	Style   struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

const (
	DefaultSystem  = "You are a business analytics assistant for the Northwind trading company. Answer questions about sales, products, customers and orders concisely."
	DefaultNotice  = "Unable to render this visualization. Try asking again or request the data in table format."
	DefaultApology = "Sorry, I encountered an error processing your request. Please try again."
	DefaultMaxRows = 10
)

func DefaultProfile() Profile {
	var p Profile
	p.applyDefaults()
	return p
}

// LoadProfile reads a YAML render profile. A missing file yields the defaults.
func LoadProfile(path string) (Profile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultProfile(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultProfile(), nil
		}
		return Profile{}, err
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, err
	}
	p.applyDefaults()
	return p, nil
}

func (p *Profile) applyDefaults() {
	if strings.TrimSpace(p.System) == "" {
		p.System = DefaultSystem
	}
	if p.Titles.Line == "" {
		p.Titles.Line = "Trend Analysis"
	}
	if p.Titles.Bar == "" {
		p.Titles.Bar = "Comparison"
	}
	if p.Titles.Pie == "" {
		p.Titles.Pie = "Distribution"
	}
	if p.Table.MaxRows <= 0 {
		p.Table.MaxRows = DefaultMaxRows
	}
	if strings.TrimSpace(p.Notice) == "" {
		p.Notice = DefaultNotice
	}
	if strings.TrimSpace(p.Apology) == "" {
		p.Apology = DefaultApology
	}
	if p.Style.Temperature <= 0 {
		p.Style.Temperature = 0.2
	}
	if p.Style.MaxTokens <= 0 {
		p.Style.MaxTokens = 600
	}
}

// RenderOptions maps the profile onto the visualization dispatcher options.
func (p Profile) RenderOptions() viz.Options {
	return viz.Options{
		LineTitle: p.Titles.Line,
		BarTitle:  p.Titles.Bar,
		PieTitle:  p.Titles.Pie,
		MaxRows:   p.Table.MaxRows,
		Notice:    p.Notice,
	}
}
