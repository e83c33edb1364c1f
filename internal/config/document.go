package config

// Document is the decoded shape of a rendered configuration file
// (spec.md §6): meta, named services, ordered scenarios, declarative
// expectations per validator family, OTEL transport settings,
// determinism seeding, and report output paths.
type Document struct {
	Meta        MetaDoc               `toml:"meta"`
	Service     map[string]ServiceDoc `toml:"service"`
	Scenario    []ScenarioDoc         `toml:"scenario"`
	Expect      ExpectDoc             `toml:"expect"`
	OTel        OTelDoc               `toml:"otel"`
	Determinism DeterminismDoc        `toml:"determinism"`
	Report      ReportDoc             `toml:"report"`
}

type MetaDoc struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Version     string `toml:"version"`
}

type VolumeDoc struct {
	HostPath      string `toml:"host_path"`
	ContainerPath string `toml:"container_path"`
	ReadOnly      bool   `toml:"read_only"`
}

type HealthCheckDoc struct {
	Command      []string `toml:"command"`
	Port         int      `toml:"port"`
	IntervalSecs int      `toml:"interval_secs"`
}

// ServiceDoc is one `[service.<alias>]` table. The alias itself is the
// map key in Document.Service, not a field here.
type ServiceDoc struct {
	Plugin                 string            `toml:"plugin"`
	Image                  string            `toml:"image"`
	Args                   []string          `toml:"args"`
	Env                    map[string]string `toml:"env"`
	Ports                  []int             `toml:"ports"`
	Volumes                []VolumeDoc       `toml:"volumes"`
	HealthCheck            *HealthCheckDoc   `toml:"health_check"`
	WaitForSpan            string            `toml:"wait_for_span"`
	WaitForSpanTimeoutSecs int               `toml:"wait_for_span_timeout_secs"`
	Host                   string            `toml:"host"`
}

type DeterministicDoc struct {
	Seed int64 `toml:"seed"`
}

// StepDoc is one `[[scenario.steps]]` entry.
type StepDoc struct {
	Name                string            `toml:"name"`
	Command             []string          `toml:"command"`
	Service             string            `toml:"service"`
	Env                 map[string]string `toml:"env"`
	ExpectedExit        *int              `toml:"expected_exit"`
	ExpectedOutputRegex string            `toml:"expected_output_regex"`
}

// ScenarioDoc is one `[[scenario]]` entry.
type ScenarioDoc struct {
	Name          string            `toml:"name"`
	Concurrent    bool              `toml:"concurrent"`
	Deterministic *DeterministicDoc `toml:"deterministic"`
	TimeoutMS     int               `toml:"timeout_ms"`
	Policy        string            `toml:"policy"`
	Steps         []StepDoc         `toml:"steps"`
}

// BoundDoc mirrors validate.Bound's {eq|gte|lte|range} shape.
type BoundDoc struct {
	Eq      *int `toml:"eq"`
	Gte     *int `toml:"gte"`
	Lte     *int `toml:"lte"`
	RangeLo *int `toml:"range_lo"`
	RangeHi *int `toml:"range_hi"`
}

// DurationMSDoc mirrors validate.DurationBound.
type DurationMSDoc struct {
	Min *float64 `toml:"min"`
	Max *float64 `toml:"max"`
}

// SpanExpectationDoc is one `[[expect.span]]` entry (spec §4.2.1).
type SpanExpectationDoc struct {
	Name       string            `toml:"name"`
	Parent     string            `toml:"parent"`
	Kind       string            `toml:"kind"`
	AttrsAll   map[string]string `toml:"attrs_all"`
	AttrsAny   []string          `toml:"attrs_any"`
	EventsAny  []string          `toml:"events_any"`
	DurationMS *DurationMSDoc    `toml:"duration_ms"`
}

// GraphExpectationDoc is the single `[expect.graph]` table (spec §4.2.2).
type GraphExpectationDoc struct {
	MustInclude  [][2]string `toml:"must_include"`
	MustNotCross [][2]string `toml:"must_not_cross"`
	Acyclic      bool        `toml:"acyclic"`
}

// CountsExpectationDoc is the single `[expect.counts]` table (spec §4.2.3).
type CountsExpectationDoc struct {
	SpansTotal  *BoundDoc           `toml:"spans_total"`
	EventsTotal *BoundDoc           `toml:"events_total"`
	ErrorsTotal *BoundDoc           `toml:"errors_total"`
	ByName      map[string]BoundDoc `toml:"by_name"`
}

// WindowExpectationDoc is one `[[expect.window]]` entry (spec §4.2.4).
type WindowExpectationDoc struct {
	Outer    string   `toml:"outer"`
	Contains []string `toml:"contains"`
}

// OrderExpectationDoc is the single `[expect.order]` table (spec §4.2.5).
type OrderExpectationDoc struct {
	MustPrecede [][2]string `toml:"must_precede"`
	MustFollow  [][2]string `toml:"must_follow"`
}

type StatusByNameDoc struct {
	Pattern string `toml:"pattern"`
	Status  string `toml:"status"`
}

// StatusExpectationDoc is the single `[expect.status]` table (spec §4.2.6).
type StatusExpectationDoc struct {
	All    string            `toml:"all"`
	ByName []StatusByNameDoc `toml:"by_name"`
}

// HermeticityExpectationDoc is the single `[expect.hermeticity]` table
// (spec §4.2.7).
type HermeticityExpectationDoc struct {
	NoExternalServices        bool              `toml:"no_external_services"`
	AllowlistHosts            []string          `toml:"allowlist_hosts"`
	ResourceAttrsMustMatch    map[string]string `toml:"resource_attrs_must_match"`
	SDKResourceAttrsMustMatch map[string]string `toml:"sdk_resource_attrs_must_match"`
	SpanAttrsForbidKeys       []string          `toml:"span_attrs_forbid_keys"`
}

// ExpectDoc groups every `[expect.*]` table. Span and Window are lists
// (a scenario typically asserts several span/window shapes); the rest
// are singular tables, matching the one-call-site-per-family shape
// internal/validate's validators already expose.
type ExpectDoc struct {
	Span        []SpanExpectationDoc      `toml:"span"`
	Graph       GraphExpectationDoc       `toml:"graph"`
	Counts      CountsExpectationDoc      `toml:"counts"`
	Window      []WindowExpectationDoc    `toml:"window"`
	Order       OrderExpectationDoc       `toml:"order"`
	Status      StatusExpectationDoc      `toml:"status"`
	Hermeticity HermeticityExpectationDoc `toml:"hermeticity"`
}

type OTelDoc struct {
	Endpoint      string  `toml:"endpoint"`
	Exporter      string  `toml:"exporter"`
	ServiceName   string  `toml:"service_name"`
	DeploymentEnv string  `toml:"deployment_env"`
	SampleRatio   float64 `toml:"sample_ratio"`
}

type DeterminismDoc struct {
	Seed        *int64 `toml:"seed"`
	FreezeClock string `toml:"freeze_clock"`
}

type ReportDoc struct {
	JSON   string `toml:"json"`
	JUnit  string `toml:"junit"`
	Digest string `toml:"digest"`
}
