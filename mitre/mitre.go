// Package mitre implements the MITRE Catalog (C8): a process-wide,
// lazily-initialized ATT&CK tactic/technique lookup with an optional
// remote refresh that degrades silently to a local fallback.
package mitre

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// DefaultConfigURL is the public MITRE CTI bundle spec.md §6 names.
const DefaultConfigURL = "https://raw.githubusercontent.com/mitre/cti/master/enterprise-attack/enterprise-attack.json"

const mitreAttackSource = "mitre-attack"

// Tactic is one entry of the process-wide tactics table, keyed by lowercase
// snake-case tactic name.
type Tactic struct {
	ExternalID string `json:"external_id" yaml:"external_id"`
	URL        string `json:"url" yaml:"url"`
	Tactic     string `json:"tactic" yaml:"tactic"`
}

// Technique is one entry of the process-wide techniques table, keyed by
// lowercase technique id (e.g. "t1059.003").
type Technique struct {
	TechniqueID string   `json:"technique_id" yaml:"technique_id"`
	Technique   string   `json:"technique" yaml:"technique"`
	URL         string   `json:"url" yaml:"url"`
	Tactic      []string `json:"tactic" yaml:"tactic"`
}

// tables is the immutable pair of lookup maps swapped atomically on every
// refresh, so readers always see either the pre- or post-refresh snapshot
// and never a partially updated catalog (spec.md §5).
type tables struct {
	Tactics    map[string]Tactic
	Techniques map[string]Technique
}

// Catalog is the process-wide MITRE lookup. Zero value is not usable; build
// with New.
type Catalog struct {
	configURL string
	fs        afs.Service
	localDir  string
	log       logrus.FieldLogger
	client    *http.Client

	snapshot atomic.Pointer[tables]
	group    singleflight.Group
}

// Option customizes a Catalog built by New.
type Option func(*Catalog)

func WithConfigURL(url string) Option { return func(c *Catalog) { c.configURL = url } }
func WithLocalDir(dir string) Option  { return func(c *Catalog) { c.localDir = dir } }
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Catalog) { c.log = l }
}
func WithHTTPClient(client *http.Client) Option { return func(c *Catalog) { c.client = client } }

func New(opts ...Option) *Catalog {
	c := &Catalog{
		configURL: DefaultConfigURL,
		localDir:  "dictionaries",
		fs:        afs.New(),
		log:       logrus.StandardLogger(),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTactic looks up a tactic by display name or dotted shortname,
// normalizing "." to "_" and lower-casing, per spec.md §4.8.
func (c *Catalog) GetTactic(ctx context.Context, tactic string) (Tactic, bool) {
	key := strings.ToLower(strings.ReplaceAll(tactic, ".", "_"))
	key = strings.ReplaceAll(key, " ", "_")
	t := c.ensureLoaded(ctx)
	entry, ok := t.Tactics[key]
	return entry, ok
}

// GetTechnique looks up a technique by dotted id (e.g. "T1059.003").
func (c *Catalog) GetTechnique(ctx context.Context, id string) (Technique, bool) {
	t := c.ensureLoaded(ctx)
	entry, ok := t.Techniques[strings.ToLower(id)]
	return entry, ok
}

func (c *Catalog) ensureLoaded(ctx context.Context) *tables {
	if t := c.snapshot.Load(); t != nil {
		return t
	}
	if err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Error("mitre: initial load failed; catalog is empty")
	}
	if t := c.snapshot.Load(); t != nil {
		return t
	}
	return &tables{Tactics: map[string]Tactic{}, Techniques: map[string]Technique{}}
}

// Refresh fetches the remote STIX bundle and rebuilds the catalog,
// collapsing concurrent callers into a single in-flight fetch via
// singleflight (spec.md §5's "only one refresh in flight" rule) and
// swapping the new tables in with a single atomic store (the copy-on-write
// satisfying "readers see either the pre- or post-refresh snapshot, never a
// partially updated catalog").
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		t, remoteErr := c.fetchRemote(ctx)
		if remoteErr != nil {
			c.log.WithError(remoteErr).Warn("mitre: remote refresh failed, falling back to local dictionaries")
			var localErr error
			t, localErr = c.loadLocal(ctx)
			if localErr != nil {
				return nil, localErr
			}
		}
		c.snapshot.Store(t)
		return nil, nil
	})
	return err
}

func (c *Catalog) fetchRemote(ctx context.Context) (*tables, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.configURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError(resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var bundle stixBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, err
	}
	return buildTables(bundle), nil
}

func (c *Catalog) loadLocal(ctx context.Context) (*tables, error) {
	tacticsBytes, err := c.fs.DownloadWithURL(ctx, c.localDir+"/tactics.yaml")
	if err != nil {
		return nil, err
	}
	techniquesBytes, err := c.fs.DownloadWithURL(ctx, c.localDir+"/techniques.yaml")
	if err != nil {
		return nil, err
	}
	var tactics map[string]Tactic
	if err := yaml.Unmarshal(tacticsBytes, &tactics); err != nil {
		return nil, err
	}
	var techniques map[string]Technique
	if err := yaml.Unmarshal(techniquesBytes, &techniques); err != nil {
		return nil, err
	}
	return &tables{Tactics: tactics, Techniques: techniques}, nil
}

// EnrichTags resolves a Sigma-style tag list (e.g. "attack.execution",
// "attack.t1059.003") into the map a rule's MetaInfoContainer.MitreAttack
// carries, per spec.md §4.8: a technique tag adds its technique id under
// each of the technique's tactic names; a tactic tag adds the tactic's own
// id (e.g. "TA0002") under the tag text after "attack.". Tags that match
// neither a known tactic nor a known technique are skipped silently —
// enrichment is best-effort, not a validation pass.
func (c *Catalog) EnrichTags(ctx context.Context, tags []string) map[string][]string {
	out := map[string][]string{}
	for _, tag := range tags {
		rest := strings.TrimPrefix(tag, "attack.")
		if rest == tag {
			continue
		}
		if strings.HasPrefix(strings.ToLower(rest), "t") {
			if technique, ok := c.GetTechnique(ctx, rest); ok {
				for _, tactic := range technique.Tactic {
					out[tactic] = appendUnique(out[tactic], technique.TechniqueID)
				}
				continue
			}
		}
		if tactic, ok := c.GetTactic(ctx, rest); ok {
			out[rest] = appendUnique(out[rest], tactic.ExternalID)
		}
	}
	return out
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

type httpStatusErr struct{ code int }

func (e httpStatusErr) Error() string { return "mitre: unexpected HTTP status" }

func httpStatusError(code int) error { return httpStatusErr{code: code} }
