package knowledge

import (
	"fmt"
	"strings"

	"github.com/abhisek/cheatsheet/internal/store"
)

// PromptConcept is a resolved concept inside the system prompt.
type PromptConcept struct {
	Ref       string   `json:"ref"`
	Title     string   `json:"title"`
	Content   []string `json:"content"`
	Freshness float64  `json:"freshness"`
}

// PromptData is the learner context used to seed a conversation: the
// resolved buckets and the learner profile.
type PromptData struct {
	Today       []PromptConcept   `json:"TODAY"`
	LongTerm    []PromptConcept   `json:"LONG_TERM"`
	ShortTerm   []PromptConcept   `json:"SHORT_TERM"`
	UserProfile store.UserProfile `json:"USER_PROFILE"`
}

// SystemPrompt resolves every reference in the persisted distribution.
// References that no longer resolve are dropped.
func (d *Distributor) SystemPrompt() (PromptData, error) {
	dist, err := d.store.LoadDistribution()
	if err != nil {
		return PromptData{}, err
	}
	profile, err := d.store.UserProfile()
	if err != nil {
		return PromptData{}, err
	}

	data := PromptData{UserProfile: profile}
	if data.Today, err = d.resolve(dist.Today); err != nil {
		return PromptData{}, err
	}
	if data.LongTerm, err = d.resolve(dist.LongTerm); err != nil {
		return PromptData{}, err
	}
	if data.ShortTerm, err = d.resolve(dist.ShortTerm); err != nil {
		return PromptData{}, err
	}
	return data, nil
}

func (d *Distributor) resolve(refs []string) ([]PromptConcept, error) {
	out := make([]PromptConcept, 0, len(refs))
	for _, ref := range refs {
		c, ok, err := d.store.GetConcept(ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, PromptConcept{
			Ref:       ref,
			Title:     c.Title,
			Content:   c.Content,
			Freshness: c.Freshness,
		})
	}
	return out, nil
}

// Render formats the prompt data as plain text for an LLM system message.
func (p PromptData) Render() string {
	var b strings.Builder
	b.WriteString("You are a tutor helping a learner review course material.\n")

	if p.UserProfile.Major != "" || p.UserProfile.CareerGoal != "" || len(p.UserProfile.Profile) > 0 {
		b.WriteString("\nLearner profile:\n")
		if p.UserProfile.Major != "" {
			fmt.Fprintf(&b, "- Major: %s\n", p.UserProfile.Major)
		}
		if p.UserProfile.CareerGoal != "" {
			fmt.Fprintf(&b, "- Career goal: %s\n", p.UserProfile.CareerGoal)
		}
		for _, line := range p.UserProfile.Profile {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	section := func(name string, concepts []PromptConcept) {
		if len(concepts) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", name)
		for _, c := range concepts {
			desc := ""
			if len(c.Content) > 0 {
				desc = c.Content[0]
			}
			fmt.Fprintf(&b, "- %s (freshness %.2f): %s\n", c.Title, c.Freshness, desc)
		}
	}
	section("Learned today", p.Today)
	section("Learned recently", p.ShortTerm)
	section("Learned a while ago", p.LongTerm)

	return b.String()
}
