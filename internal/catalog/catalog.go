// Package catalog loads and validates the static net catalog.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	appLog "netsched/internal/log"
	"netsched/internal/model"
	"netsched/internal/recurrence"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is a validated, immutable list of nets.
type Catalog struct {
	Source string
	Region string
	Nets   []model.NetDefinition
}

// record is a net exactly as written in the catalog file.
type record struct {
	Name      string   `yaml:"name"`
	Time      string   `yaml:"time"`
	Days      []string `yaml:"days"`
	Week      string   `yaml:"week,omitempty"`
	Exception string   `yaml:"exception,omitempty"`
	Repeater  string   `yaml:"repeater,omitempty"`
	Frequency string   `yaml:"frequency,omitempty"`
	Offset    string   `yaml:"offset,omitempty"`
	PL        string   `yaml:"pl,omitempty"`
	Mode      string   `yaml:"mode,omitempty"`
	System    string   `yaml:"system,omitempty"`
	Note      string   `yaml:"note,omitempty"`
}

type document struct {
	Source string   `yaml:"source"`
	Region string   `yaml:"region"`
	Nets   []record `yaml:"nets"`
}

var ErrEmptyCatalog = errors.New("catalog body is empty")

// Default returns the embedded Greater Los Angeles catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads and validates a catalog file. An empty path loads the
// embedded catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML (or JSON) catalog document.
//
// Every record is checked; all validation failures are returned together
// and no partial catalog is produced. Monthly-rule text that names no
// ordinal is logged and treated as unconstrained.
func Parse(data []byte) (*Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyCatalog
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	nets := make([]model.NetDefinition, 0, len(doc.Nets))
	var errs []error
	for i, rec := range doc.Nets {
		n, err := rec.toNet()
		if err != nil {
			errs = append(errs, fmt.Errorf("net %d (%q): %w", i, rec.Name, err))
			continue
		}
		nets = append(nets, n)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	appLog.Debug("catalog parsed", "source", doc.Source, "net_count", len(nets))
	return &Catalog{
		Source: doc.Source,
		Region: doc.Region,
		Nets:   nets,
	}, nil
}

func (r record) toNet() (model.NetDefinition, error) {
	var out model.NetDefinition

	out.Name = strings.TrimSpace(r.Name)
	if out.Name == "" {
		return out, errors.New("missing name")
	}

	t, err := model.ParseTimeOfDay(r.Time)
	if err != nil {
		return out, err
	}
	out.Time = t

	if len(r.Days) == 0 {
		return out, errors.New("no days of week")
	}
	for _, name := range r.Days {
		d, err := model.ParseWeekday(name)
		if err != nil {
			return out, err
		}
		out.Days |= model.NewWeekdaySet(d)
	}

	// "exception" is free text like "except 2nd Thursday" and only stands
	// in for the rule when "week" is absent.
	text := r.Week
	if strings.TrimSpace(text) == "" {
		text = r.Exception
	}
	rule, ok := recurrence.ParseMonthlyRule(text)
	if !ok {
		appLog.Warn("catalog: monthly rule names no week; treating as every week",
			"net", out.Name, "rule", text)
	}
	out.Rule = rule
	out.RuleText = strings.TrimSpace(text)

	ch, err := r.channel()
	if err != nil {
		return out, err
	}
	out.Channel = ch
	out.Note = strings.TrimSpace(r.Note)

	return out, nil
}

// channel picks exactly one of the three channel shapes.
func (r record) channel() (model.Channel, error) {
	system := strings.TrimSpace(r.System)
	freq := strings.TrimSpace(r.Frequency)
	mode := strings.TrimSpace(r.Mode)
	rpt := strings.TrimSpace(r.Repeater)
	offset := strings.TrimSpace(r.Offset)
	pl := strings.TrimSpace(r.PL)

	isRepeater := rpt != "" || offset != "" || pl != ""

	switch {
	case system != "":
		if freq != "" || mode != "" || isRepeater {
			return model.Channel{}, errors.New("system channel must not carry frequency, mode or repeater fields")
		}
		return model.Channel{Kind: model.ChannelSystem, SystemName: system}, nil

	case isRepeater:
		if freq == "" {
			return model.Channel{}, errors.New("repeater channel requires a frequency")
		}
		if mode != "" {
			return model.Channel{}, errors.New("repeater channel must not carry a mode")
		}
		switch offset {
		case "", "+", "-":
		default:
			return model.Channel{}, fmt.Errorf("invalid offset %q", offset)
		}
		var tone float64
		if pl != "" {
			v, err := strconv.ParseFloat(pl, 64)
			if err != nil || v <= 0 {
				return model.Channel{}, fmt.Errorf("invalid PL tone %q", pl)
			}
			tone = v
		}
		return model.Channel{
			Kind:       model.ChannelRepeater,
			RepeaterID: rpt,
			Frequency:  freq,
			Offset:     offset,
			ToneHz:     tone,
		}, nil

	case freq != "" || mode != "":
		return model.Channel{Kind: model.ChannelDirect, Frequency: freq, Mode: mode}, nil

	default:
		return model.Channel{}, errors.New("no channel: need system, repeater or frequency/mode")
	}
}
