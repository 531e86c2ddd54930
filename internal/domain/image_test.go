package domain

import "testing"

func TestTransformationConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  TransformationConfig
		wantErr bool
	}{
		{"restore", TransformationConfig{Kind: KindRestore}, false},
		{"remove background", TransformationConfig{Kind: KindRemoveBackground}, false},
		{"fill", TransformationConfig{Kind: KindFill, Fill: &FillConfig{AspectRatio: "16:9"}}, false},
		{"remove object", TransformationConfig{Kind: KindRemoveObject, RemoveObject: &RemoveObjectConfig{Prompt: "the lamppost"}}, false},
		{"recolor", TransformationConfig{Kind: KindRecolor, Recolor: &RecolorConfig{Prompt: "the car", Color: "red"}}, false},
		{"unknown kind", TransformationConfig{Kind: "sharpen"}, true},
		{"fill without params", TransformationConfig{Kind: KindFill}, true},
		{"remove object without prompt", TransformationConfig{Kind: KindRemoveObject, RemoveObject: &RemoveObjectConfig{}}, true},
		{"recolor without color", TransformationConfig{Kind: KindRecolor, Recolor: &RecolorConfig{Prompt: "the car"}}, true},
		{"restore with foreign params", TransformationConfig{Kind: KindRestore, Recolor: &RecolorConfig{Prompt: "x", Color: "y"}}, true},
		{"fill with two sections", TransformationConfig{Kind: KindFill, Fill: &FillConfig{AspectRatio: "1:1"}, RemoveObject: &RemoveObjectConfig{Prompt: "x"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransformationCostsCoverAllKinds(t *testing.T) {
	kinds := []TransformationKind{KindFill, KindRestore, KindRemoveBackground, KindRemoveObject, KindRecolor}
	for _, kind := range kinds {
		cost, ok := TransformationCosts[kind]
		if !ok {
			t.Errorf("kind %q has no cost", kind)
			continue
		}
		if cost <= 0 {
			t.Errorf("kind %q: cost must be positive, got %d", kind, cost)
		}
	}
}
