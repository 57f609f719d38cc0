// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seed

import (
	_ "embed"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed feeds.yaml
var feedTableYAML []byte

// Topic is one row of the topic→feed table: a named group of feeds selected
// when any of its keywords appears in the query.
type Topic struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Feeds    []string `yaml:"feeds"`
}

func (t Topic) matches(queryLower string) bool {
	for _, kw := range t.Keywords {
		if strings.Contains(queryLower, kw) {
			return true
		}
	}
	return false
}

// FeedTable is the static topic→feed configuration. It is loaded once and
// shared by reference; nothing mutates it at request time.
type FeedTable struct {
	General []string `yaml:"general"`
	Topics  []Topic  `yaml:"topics"`
}

// LoadFeedTable parses the embedded feed table.
func LoadFeedTable() (*FeedTable, error) {
	var table FeedTable
	if err := yaml.Unmarshal(feedTableYAML, &table); err != nil {
		return nil, fmt.Errorf("parsing feed table: %w", err)
	}
	if len(table.General) == 0 {
		return nil, fmt.Errorf("feed table has no general group")
	}
	return &table, nil
}

// TopicsFor returns the names of the topics the query matches, in table
// order. Used by the seeds CLI surface for inspection.
func (ft *FeedTable) TopicsFor(query string) []string {
	queryLower := strings.ToLower(query)
	var names []string
	for _, t := range ft.Topics {
		if t.matches(queryLower) {
			names = append(names, t.Name)
		}
	}
	return names
}
