package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

var ErrInvalidExercise = errors.New("invalid exercise")

// Exercise is one catalog entry. The json field names are the dump format.
type Exercise struct {
	Title          string `json:"title" yaml:"title"`
	Url            string `json:"url" yaml:"url"`
	Equipment      string `json:"equipment" yaml:"equipment"`
	PrimaryMuscles string `json:"primary_muscles" yaml:"primary_muscles"`
	ImageUrl       string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	DetailsUrl     string `json:"details_url,omitempty" yaml:"details_url,omitempty"`
	// muscle name -> involvement percentage, kept as the text found on the page
	MusclesWorked map[string]string `json:"muscles_worked" yaml:"muscles_worked"`
}

func (e Exercise) validate() error {
	if e.Title == "" {
		return fmt.Errorf("%w: empty title (url %q)", ErrInvalidExercise, e.Url)
	}
	if e.Url == "" {
		return fmt.Errorf("%w: empty url (title %q)", ErrInvalidExercise, e.Title)
	}
	return nil
}

// Catalog maps exercise titles to exercises, a title seen twice keeps the
// exercise that was put last.
type Catalog struct {
	exercises map[string]Exercise
}

func New() *Catalog {
	return &Catalog{exercises: map[string]Exercise{}}
}

// Put stores `e` under its title, returning the exercise it replaced if any.
func (c *Catalog) Put(e Exercise) (previous Exercise, replaced bool, err error) {
	err = e.validate()
	if err != nil {
		return Exercise{}, false, err
	}
	if e.MusclesWorked == nil {
		e.MusclesWorked = map[string]string{}
	}

	previous, replaced = c.exercises[e.Title]
	c.exercises[e.Title] = e
	return previous, replaced, nil
}

func (c *Catalog) Get(title string) (Exercise, bool) {
	e, ok := c.exercises[title]
	return e, ok
}

func (c *Catalog) Len() int {
	return len(c.exercises)
}

// Titles returns every title in lexical order.
func (c *Catalog) Titles() []string {
	titles := make([]string, 0, len(c.exercises))
	for title := range c.exercises {
		titles = append(titles, title)
	}
	slices.Sort(titles)
	return titles
}

// Exercises returns every exercise ordered by title.
func (c *Catalog) Exercises() []Exercise {
	titles := c.Titles()
	out := make([]Exercise, len(titles))
	for i, title := range titles {
		out[i] = c.exercises[title]
	}
	return out
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.exercises)
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw map[string]Exercise
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	exercises := make(map[string]Exercise, len(raw))
	for key, e := range raw {
		if e.Title == "" {
			e.Title = key
		}
		if e.MusclesWorked == nil {
			e.MusclesWorked = map[string]string{}
		}
		err = e.validate()
		if err != nil {
			return err
		}
		exercises[key] = e
	}
	c.exercises = exercises
	return nil
}

// WriteFile writes the whole catalog to `path`, replacing whatever was there.
func (c *Catalog) WriteFile(path string) error {
	serialized, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	err = os.WriteFile(path, serialized, 0644)
	if err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// ReadFile loads a catalog previously written by WriteFile.
func ReadFile(path string) (*Catalog, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c := New()
	err = json.Unmarshal(contents, c)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return c, nil
}

type Match struct {
	Exercise   Exercise
	Similarity float64
}

// Search ranks exercises by Jaro-Winkler similarity between `query` and the
// title, a title containing the query outright always ranks first.
// `limit` <= 0 returns every match.
func (c *Catalog) Search(query string, limit int) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	matches := make([]Match, 0, len(c.exercises))
	for _, e := range c.Exercises() {
		title := strings.ToLower(e.Title)
		similarity := matchr.JaroWinkler(query, title, false)
		if strings.Contains(title, query) {
			similarity += 1
		}
		if similarity <= 0 {
			continue
		}
		matches = append(matches, Match{Exercise: e, Similarity: similarity})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
