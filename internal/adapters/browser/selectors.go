package browser

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"forumintel/internal/extract"
	"forumintel/internal/usecases"
	"forumintel/pkg/log"

	"gopkg.in/yaml.v3"
)

//go:embed selectors.yaml
var defaultSelectors []byte

// SiteConfig holds the current forum page structure and reloads it when
// its file changes. It implements usecases.SiteSource.
type SiteConfig struct {
	mu          sync.RWMutex
	site        usecases.Site
	lastModTime time.Time
	filePath    string
}

// DefaultSite returns the built-in XenForo page structure.
func DefaultSite() usecases.Site {
	site, err := ParseSite(defaultSelectors)
	if err != nil {
		panic(fmt.Sprintf("built-in selectors are invalid: %v", err))
	}
	return site
}

// LoadSite reads the site description from filePath. A missing file falls
// back to the built-in description; a present but invalid one is an error.
func LoadSite(filePath string) (*SiteConfig, error) {
	config := &SiteConfig{filePath: filePath}

	if filePath == "" {
		config.site = DefaultSite()
		return config, nil
	}
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		log.GlobalWarn("selectors file not found, using built-in selectors", "path", filePath)
		config.site = DefaultSite()
		config.filePath = ""
		return config, nil
	}

	if err := config.reload(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseSite decodes and validates a YAML site description.
func ParseSite(data []byte) (usecases.Site, error) {
	var site usecases.Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return usecases.Site{}, fmt.Errorf("decode selectors: %w", err)
	}
	if err := validateSite(site); err != nil {
		return usecases.Site{}, err
	}
	return site, nil
}

func validateSite(site usecases.Site) error {
	required := map[string]string{
		"login.username": site.Login.Username,
		"login.password": site.Login.Password,
		"login.submit":   site.Login.Submit,
		"search.input":   site.Search.Input,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("selectors: %s is required", name)
		}
	}

	specs := []struct {
		name   string
		spec   extract.Spec
		fields []string
	}{
		{"posts", site.Posts, []string{"url"}},
		{"comments", site.Comments, nil},
		{"pagination", site.Pagination, []string{"last"}},
	}
	for _, s := range specs {
		if err := s.spec.Validate(); err != nil {
			return fmt.Errorf("selectors: %s: %w", s.name, err)
		}
		for _, field := range s.fields {
			if !hasField(s.spec, field) {
				return fmt.Errorf("selectors: %s: field %q is required", s.name, field)
			}
		}
	}
	return nil
}

func hasField(spec extract.Spec, name string) bool {
	for _, f := range spec.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// reload reads the configuration from the file.
func (c *SiteConfig) reload() error {
	info, err := os.Stat(c.filePath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	site, err := ParseSite(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.filePath, err)
	}

	c.mu.Lock()
	c.site = site
	c.lastModTime = info.ModTime()
	c.mu.Unlock()
	return nil
}

// Watch polls the file every interval and reloads it when it changes,
// until ctx is done. An invalid edit is logged and the previous
// description stays in effect.
func (c *SiteConfig) Watch(ctx context.Context, interval time.Duration) {
	if c.filePath == "" {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		info, err := os.Stat(c.filePath)
		if err != nil {
			continue
		}

		c.mu.RLock()
		changed := info.ModTime().After(c.lastModTime)
		c.mu.RUnlock()
		if !changed {
			continue
		}

		if err := c.reload(); err != nil {
			log.GlobalWarn("selectors reload failed, keeping previous selectors", "error", err)
			// Do not retry the same broken edit on every tick.
			c.mu.Lock()
			c.lastModTime = info.ModTime()
			c.mu.Unlock()
			continue
		}
		log.GlobalInfo("selectors reloaded", "path", c.filePath)
	}
}

// Site returns a snapshot of the current description (thread-safe).
func (c *SiteConfig) Site() usecases.Site {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.site
}
