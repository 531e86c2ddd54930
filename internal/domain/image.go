package domain

import (
	"fmt"
	"time"
)

// TransformationKind enumerates the supported transformations.
type TransformationKind string

const (
	KindFill             TransformationKind = "fill"              // Generative fill / expand
	KindRestore          TransformationKind = "restore"           // Restore old or blurry photos
	KindRemoveBackground TransformationKind = "remove-background" // Background removal
	KindRemoveObject     TransformationKind = "remove-object"     // Prompt-guided object removal
	KindRecolor          TransformationKind = "recolor"           // Prompt-guided recoloring
)

// TransformationCosts maps each kind to its credit cost. Costs are fixed data
// so the gate and the price list shown to users cannot drift apart.
var TransformationCosts = map[TransformationKind]int{
	KindFill:             3,
	KindRestore:          1,
	KindRemoveBackground: 1,
	KindRemoveObject:     4,
	KindRecolor:          2,
}

// Valid reports whether k is a known transformation kind.
func (k TransformationKind) Valid() bool {
	_, ok := TransformationCosts[k]
	return ok
}

// FillConfig holds parameters for generative fill.
type FillConfig struct {
	AspectRatio string `json:"aspect_ratio"` // Target aspect ratio, e.g. "1:1", "16:9"
}

// RemoveObjectConfig holds parameters for object removal.
type RemoveObjectConfig struct {
	Prompt string `json:"prompt"` // Describes the object to remove
}

// RecolorConfig holds parameters for recoloring.
type RecolorConfig struct {
	Prompt string `json:"prompt"` // Describes the object to recolor
	Color  string `json:"color"`  // Replacement color
}

// TransformationConfig is a closed tagged variant over the transformation
// kinds. Exactly the section matching Kind must be set; restore and
// remove-background take no parameters.
type TransformationConfig struct {
	Kind         TransformationKind  `json:"kind"`
	Fill         *FillConfig         `json:"fill,omitempty"`
	RemoveObject *RemoveObjectConfig `json:"remove_object,omitempty"`
	Recolor      *RecolorConfig      `json:"recolor,omitempty"`
}

// Validate checks that the config carries exactly the parameter set its kind
// requires.
func (c TransformationConfig) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("unknown transformation kind %q", c.Kind)
	}
	want := map[TransformationKind]bool{
		KindFill:         c.Fill != nil,
		KindRemoveObject: c.RemoveObject != nil,
		KindRecolor:      c.Recolor != nil,
	}
	for kind, set := range want {
		if kind == c.Kind && !set {
			return fmt.Errorf("transformation kind %q requires its parameter set", c.Kind)
		}
		if kind != c.Kind && set {
			return fmt.Errorf("transformation kind %q does not accept %q parameters", c.Kind, kind)
		}
	}
	switch c.Kind {
	case KindRemoveObject:
		if c.RemoveObject.Prompt == "" {
			return fmt.Errorf("remove-object requires a prompt")
		}
	case KindRecolor:
		if c.Recolor.Prompt == "" || c.Recolor.Color == "" {
			return fmt.Errorf("recolor requires a prompt and a color")
		}
	}
	return nil
}

// Image Model. A transformation artifact authored by a user. The author
// reference is a weak relation; ownership checks happen in the catalog.
type Image struct {
	ID        uint                 `gorm:"primaryKey"`      // Primary key
	AuthorID  uint                 `gorm:"not null;index"`  // Foreign key to User
	Title     string               `gorm:"not null"`        // Display title
	Kind      TransformationKind   `gorm:"not null"`        // Transformation kind
	Config    TransformationConfig `gorm:"serializer:json"` // Typed transformation parameters
	SourceURL string               `gorm:"not null"`        // Source asset reference
	ResultURL string               // Derived asset reference (CDN URL)
	Width     int                  // Derived asset width
	Height    int                  // Derived asset height
	CreatedAt time.Time
	UpdatedAt time.Time
}
