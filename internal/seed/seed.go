// Package seed loads team and member fixtures from YAML and writes them to
// the database in one transaction.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/pkg"
)

// Fixture is the YAML document: teams with their members, plus members
// that belong to no team.
type Fixture struct {
	Teams   []TeamFixture   `yaml:"teams"`
	Members []MemberFixture `yaml:"members"`
}

// TeamFixture is one team and its members.
type TeamFixture struct {
	Name    string          `yaml:"name"`
	Members []MemberFixture `yaml:"members"`
}

// MemberFixture is one member. An empty username is stored as absent.
type MemberFixture struct {
	Username string `yaml:"username"`
	Age      int    `yaml:"age"`
}

// Result reports what Apply wrote.
type Result struct {
	Teams   int
	Members int
	Skipped bool
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture %s: %w", path, err)
	}
	defer f.Close()

	fx, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return fx, nil
}

// Parse decodes a fixture document and checks it.
func Parse(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	for i, t := range fx.Teams {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("teams[%d]: name is required", i)
		}
		for j, m := range t.Members {
			if m.Age < 0 {
				return fmt.Errorf("teams[%d].members[%d]: age must not be negative", i, j)
			}
		}
	}
	for i, m := range fx.Members {
		if m.Age < 0 {
			return fmt.Errorf("members[%d]: age must not be negative", i)
		}
	}
	return nil
}

// Apply writes fx in a single transaction. It does nothing when the members
// table already has rows, so it is safe to run on every start.
func Apply(ctx context.Context, db *gorm.DB, fx *Fixture) (Result, error) {
	var res Result
	err := pkg.WithTx(ctx, db, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&domain.Member{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			res.Skipped = true
			return nil
		}

		for _, tf := range fx.Teams {
			team := domain.Team{Name: strings.TrimSpace(tf.Name)}
			if err := tx.Create(&team).Error; err != nil {
				return fmt.Errorf("create team %q: %w", team.Name, err)
			}
			res.Teams++
			for _, mf := range tf.Members {
				if err := createMember(tx, mf, &team.ID); err != nil {
					return err
				}
				res.Members++
			}
		}
		for _, mf := range fx.Members {
			if err := createMember(tx, mf, nil); err != nil {
				return err
			}
			res.Members++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// ApplyFile loads the fixture at path and applies it.
func ApplyFile(ctx context.Context, db *gorm.DB, path string) (Result, error) {
	fx, err := LoadFile(path)
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, db, fx)
}

func createMember(tx *gorm.DB, mf MemberFixture, teamID *uint) error {
	m := domain.Member{Age: mf.Age, TeamID: teamID}
	if name := strings.TrimSpace(mf.Username); name != "" {
		m.Username = &name
	}
	if err := tx.Omit("Team").Create(&m).Error; err != nil {
		return fmt.Errorf("create member %q: %w", mf.Username, err)
	}
	return nil
}
