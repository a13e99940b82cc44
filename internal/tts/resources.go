package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrMissingResources is returned when model or voice files are absent.
var ErrMissingResources = errors.New("missing kokoro resources")

const releaseBase = "https://github.com/thewh1teagle/kokoro-onnx/releases/download/model-files/"

// DefaultVoice is preferred when the catalog contains it.
const DefaultVoice = "af_sky"

// Resource is a file the local engine needs before any work starts.
type Resource struct {
	Path string
	URL  string
}

// KokoroResources lists the model and voices files with their download URLs.
func KokoroResources(model, voices string) []Resource {
	return []Resource{
		{Path: model, URL: releaseBase + "kokoro-v0_19.onnx"},
		{Path: voices, URL: releaseBase + "voices.json"},
	}
}

// MissingResourcesError names every absent file.
type MissingResourcesError struct {
	Missing []Resource
}

func (e *MissingResourcesError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = r.Path
	}
	return fmt.Sprintf("%s: %s", ErrMissingResources, strings.Join(names, ", "))
}

func (e *MissingResourcesError) Unwrap() error { return ErrMissingResources }

// Remediation tells the user how to fetch the missing files.
func (e *MissingResourcesError) Remediation() string {
	var b strings.Builder
	for _, r := range e.Missing {
		fmt.Fprintf(&b, "Error: %s not found. Download it with:\n  wget %s -O %s\n", r.Path, r.URL, r.Path)
	}
	return b.String()
}

// CheckResources returns a *MissingResourcesError when any file is absent.
func CheckResources(res []Resource) error {
	var missing []Resource
	for _, r := range res {
		if r.Path == "" {
			missing = append(missing, r)
			continue
		}
		if st, err := os.Stat(r.Path); err != nil || st.IsDir() {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &MissingResourcesError{Missing: missing}
	}
	return nil
}

// LoadVoices reads the voice names from a voices.json catalog, sorted.
func LoadVoices(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var catalog map[string]json.RawMessage
	if err := json.NewDecoder(f).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode voices %s: %w", path, err)
	}
	voices := make([]string, 0, len(catalog))
	for name := range catalog {
		voices = append(voices, name)
	}
	sort.Strings(voices)
	return voices, nil
}

// PickVoice returns requested when set, else DefaultVoice when available, else
// the first voice.
func PickVoice(requested string, voices []string) string {
	if requested != "" {
		return requested
	}
	for _, v := range voices {
		if v == DefaultVoice {
			return v
		}
	}
	if len(voices) > 0 {
		return voices[0]
	}
	return ""
}
