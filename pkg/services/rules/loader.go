package rules

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/checks"
)

// ruleFile mirrors the on-disk YAML shape. Check entries keep their raw
// key/value pairs; everything besides type and table is a check parameter.
type ruleFile struct {
	ID          string `mapstructure:"id"`
	RuleID      string `mapstructure:"rule_id"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Severity    string `mapstructure:"severity"`
	Evidence    struct {
		RequiresTables []string         `mapstructure:"requires_tables"`
		Checks         []map[string]any `mapstructure:"checks"`
	} `mapstructure:"evidence"`
}

// LoadAll loads rule packs for every domain directory found under root.
// Directory names resolve through the domain alias table, so rules/finance
// and rules/cfo both feed the finance pack. Unknown directories are skipped
// with a warning.
func LoadAll(ctx context.Context, root string) (map[domain.Domain][]Rule, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules root %s: %w", root, err)
	}

	packs := make(map[domain.Domain][]Rule)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := domain.ParseDomain(e.Name())
		if err != nil {
			zerolog.Ctx(ctx).Warn().
				Str("dir", e.Name()).
				Msg("skipping rules directory for unknown domain")
			continue
		}
		loaded, err := LoadDir(ctx, filepath.Join(root, e.Name()), d)
		if err != nil {
			return nil, err
		}
		packs[d] = append(packs[d], loaded...)
	}
	return packs, nil
}

// LoadDomain loads the rule pack for one domain from root.
func LoadDomain(ctx context.Context, root string, d domain.Domain) ([]Rule, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules root %s: %w", root, err)
	}

	var out []Rule
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dd, err := domain.ParseDomain(e.Name())
		if err != nil || dd != d {
			continue
		}
		loaded, err := LoadDir(ctx, filepath.Join(root, e.Name()), d)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded...)
	}
	return out, nil
}

// LoadDir loads every YAML file under dir, recursively, in lexicographic
// order, one rule per file. Malformed files are skipped with a warning so a
// single bad rule never takes the whole pack down.
func LoadDir(ctx context.Context, dir string, d domain.Domain) ([]Rule, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
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
		return nil, fmt.Errorf("failed to scan rules dir %s: %w", dir, err)
	}
	sort.Strings(files)

	rules := make([]Rule, 0, len(files))
	for _, path := range files {
		rule, err := loadFile(ctx, path, d)
		if err != nil {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("path", path).
				Msg("skipping malformed rule file")
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func loadFile(ctx context.Context, path string, d domain.Domain) (Rule, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Rule{}, fmt.Errorf("failed to read rule file: %w", err)
	}

	var rf ruleFile
	if err := v.Unmarshal(&rf); err != nil {
		return Rule{}, fmt.Errorf("failed to parse rule file: %w", err)
	}

	id := rf.ID
	if id == "" {
		id = rf.RuleID
	}
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	// Severity defaults to warn when absent. A present but unknown value
	// downgrades to info so a typo cannot silently block a run.
	sev := domain.SeverityWarn
	if s := strings.TrimSpace(rf.Severity); s != "" {
		parsed, known := domain.ParseRuleSeverity(s)
		if !known {
			zerolog.Ctx(ctx).Warn().
				Str("path", path).
				Str("severity", s).
				Msg("unknown rule severity, treating as info")
		}
		sev = parsed
	}

	specs := make([]checks.Spec, 0, len(rf.Evidence.Checks))
	for _, raw := range rf.Evidence.Checks {
		spec := checks.Spec{Params: make(map[string]any, len(raw))}
		for k, val := range raw {
			switch k {
			case "type":
				spec.Kind = domain.String(val)
			case "table":
				spec.Table = domain.String(val)
			default:
				spec.Params[k] = val
			}
		}
		specs = append(specs, spec)
	}

	return Rule{
		ID:             id,
		Domain:         d,
		Title:          rf.Title,
		Description:    rf.Description,
		Severity:       sev,
		RequiresTables: rf.Evidence.RequiresTables,
		Checks:         specs,
		Path:           path,
	}, nil
}
