package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// File names produced by the document parsers for one client folder.
const (
	AccountFile     = "account.json"
	ProfileFile     = "profile.json"
	DescriptionFile = "description.json"
	PassportFile    = "passport.json"
	LabelFile       = "label.json"
)

// Input is the single-document form of a packet accepted over HTTP.
type Input struct {
	ID          string            `json:"id"`
	AccountForm AccountForm       `json:"account_form"`
	Profile     ClientProfile     `json:"client_profile"`
	Description ClientDescription `json:"client_description"`
	Passport    Passport          `json:"passport"`
	Label       *bool             `json:"label,omitempty"`
}

// Record assembles the input into a validated ClientRecord.
func (in Input) Record() *ClientRecord {
	return New(in.ID, in.AccountForm, in.Profile, in.Description, in.Passport, in.Label)
}

type labelDoc struct {
	Accept *bool `json:"accept"`
}

// LoadDir reads the four parsed documents of one client folder. The folder name
// becomes the record ID. A missing label.json leaves the label unset.
func LoadDir(dir string) (*ClientRecord, error) {
	var (
		account     AccountForm
		profile     ClientProfile
		description ClientDescription
		passport    Passport
	)
	docs := []struct {
		name string
		dst  any
	}{
		{AccountFile, &account},
		{ProfileFile, &profile},
		{DescriptionFile, &description},
		{PassportFile, &passport},
	}
	for _, d := range docs {
		if err := readJSON(filepath.Join(dir, d.name), d.dst); err != nil {
			return nil, err
		}
	}

	var label labelDoc
	if err := readJSON(filepath.Join(dir, LabelFile), &label); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return New(filepath.Base(dir), account, profile, description, passport, label.Accept), nil
}

// LoadTree loads every directory below root that holds an account.json. Records are
// returned sorted by ID.
func LoadTree(ctx context.Context, root string, concurrency int) ([]*ClientRecord, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == AccountFile {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	records := make([]*ClientRecord, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := LoadDir(dir)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
