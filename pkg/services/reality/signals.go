package reality

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// signalFile mirrors the curated signal YAML shape. Tags stay untyped
// because authors write both scalars and lists; valid_until stays untyped
// because unquoted ISO dates decode as time.Time while quoted ones stay
// strings.
type signalFile struct {
	ID         string `mapstructure:"id"`
	SignalID   string `mapstructure:"signal_id"`
	Domain     string `mapstructure:"domain"`
	Title      string `mapstructure:"title"`
	Statement  string `mapstructure:"statement"`
	Severity   string `mapstructure:"severity"`
	Confidence string `mapstructure:"confidence"`
	Horizon    string `mapstructure:"horizon"`
	ValidUntil any    `mapstructure:"valid_until"`
	Tags       any    `mapstructure:"tags"`
}

const defaultHorizon = "6_12_months"

// LoadSignals loads every YAML signal under root, recursively, in
// lexicographic order. Malformed files are skipped with a warning and
// signals whose valid_until has passed are dropped, so the overlay only ever
// reasons over current, parseable constraints. A missing root is not an
// error; it simply yields no signals.
func LoadSignals(ctx context.Context, root string) ([]domain.RealitySignal, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan signals dir %s: %w", root, err)
	}
	sort.Strings(files)

	now := time.Now()
	signals := make([]domain.RealitySignal, 0, len(files))
	for _, path := range files {
		sig, err := loadSignal(ctx, path)
		if err != nil {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("path", path).
				Msg("skipping malformed signal file")
			continue
		}
		if !sig.ValidUntil.IsZero() && sig.ValidUntil.Before(now) {
			zerolog.Ctx(ctx).Debug().
				Str("signal_id", sig.ID).
				Time("valid_until", sig.ValidUntil).
				Msg("skipping expired signal")
			continue
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

func loadSignal(ctx context.Context, path string) (domain.RealitySignal, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return domain.RealitySignal{}, fmt.Errorf("failed to read signal file: %w", err)
	}

	var sf signalFile
	if err := v.Unmarshal(&sf); err != nil {
		return domain.RealitySignal{}, fmt.Errorf("failed to parse signal file: %w", err)
	}

	id := sf.ID
	if id == "" {
		id = sf.SignalID
	}
	if id == "" {
		id = filepath.Base(path)
	}

	// Unknown domains are kept verbatim: the signal still shows up in the
	// report, it just never feeds a feasibility flag.
	d, err := domain.ParseDomain(sf.Domain)
	if err != nil {
		d = domain.Domain(strings.ToLower(strings.TrimSpace(sf.Domain)))
		zerolog.Ctx(ctx).Warn().
			Str("path", path).
			Str("domain", sf.Domain).
			Msg("signal references unknown domain")
	}

	horizon := sf.Horizon
	if horizon == "" {
		horizon = defaultHorizon
	}

	var validUntil time.Time
	switch x := sf.ValidUntil.(type) {
	case nil:
	case time.Time:
		validUntil = x
	default:
		if s := strings.TrimSpace(domain.String(x)); s != "" {
			validUntil, err = time.Parse("2006-01-02", s)
			if err != nil {
				zerolog.Ctx(ctx).Warn().
					Str("path", path).
					Str("valid_until", s).
					Msg("unparseable valid_until, keeping signal without expiry")
				validUntil = time.Time{}
			}
		}
	}

	return domain.RealitySignal{
		ID:         id,
		Domain:     d,
		Title:      sf.Title,
		Severity:   parseSeverity(sf.Severity),
		Confidence: parseConfidence(sf.Confidence),
		Horizon:    horizon,
		ValidUntil: validUntil,
		Statement:  sf.Statement,
		Tags:       stringList(sf.Tags),
		Path:       path,
	}, nil
}

// parseSeverity normalizes author input; anything unrecognized lands on
// medium, the same default an omitted field gets.
func parseSeverity(s string) domain.SignalSeverity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return domain.SignalLow
	case "high":
		return domain.SignalHigh
	case "critical":
		return domain.SignalCritical
	default:
		return domain.SignalMedium
	}
}

func parseConfidence(s string) domain.SignalConfidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return domain.ConfidenceLow
	case "high":
		return domain.ConfidenceHigh
	default:
		return domain.ConfidenceMedium
	}
}

func stringList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, domain.String(item))
		}
		return out
	default:
		return []string{domain.String(v)}
	}
}
