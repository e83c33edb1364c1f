package config

import (
	"clnrmgo/internal/scenario"
	"clnrmgo/internal/service"
	"clnrmgo/internal/transport"
	"clnrmgo/internal/validate"
)

// Services converts every `[service.<alias>]` table into a
// service.Spec, keyed by alias.
func (d *Document) Services() map[string]service.Spec {
	specs := make(map[string]service.Spec, len(d.Service))

	for alias, sv := range d.Service {
		spec := service.Spec{
			Alias:                  alias,
			Plugin:                 sv.Plugin,
			Image:                  sv.Image,
			Args:                   sv.Args,
			Env:                    sv.Env,
			Ports:                  sv.Ports,
			WaitForSpan:            sv.WaitForSpan,
			WaitForSpanTimeoutSecs: sv.WaitForSpanTimeoutSecs,
			Host:                   sv.Host,
		}

		for _, v := range sv.Volumes {
			spec.Volumes = append(spec.Volumes, service.VolumeMount{
				HostPath:      v.HostPath,
				ContainerPath: v.ContainerPath,
				ReadOnly:      v.ReadOnly,
			})
		}

		if sv.HealthCheck != nil {
			spec.HealthCheck = &service.HealthCheck{
				Command:      sv.HealthCheck.Command,
				Port:         sv.HealthCheck.Port,
				IntervalSecs: sv.HealthCheck.IntervalSecs,
			}
		}

		specs[alias] = spec
	}

	return specs
}

// Scenarios converts every `[[scenario]]` entry into a scenario.Scenario.
func (d *Document) Scenarios() []scenario.Scenario {
	scenarios := make([]scenario.Scenario, 0, len(d.Scenario))

	for _, sd := range d.Scenario {
		sc := scenario.Scenario{
			Name:       sd.Name,
			Concurrent: sd.Concurrent,
			TimeoutMS:  sd.TimeoutMS,
		}

		if sd.Deterministic != nil {
			seed := sd.Deterministic.Seed
			sc.Seed = &seed
		}

		for _, st := range sd.Steps {
			sc.Steps = append(sc.Steps, scenario.Step{
				Label:               st.Name,
				Command:             st.Command,
				ServiceRef:          st.Service,
				Env:                 st.Env,
				ExpectedExit:        st.ExpectedExit,
				ExpectedOutputRegex: st.ExpectedOutputRegex,
			})
		}

		scenarios = append(scenarios, sc)
	}

	return scenarios
}

func toBound(b *BoundDoc) validate.Bound {
	if b == nil {
		return validate.Bound{}
	}

	return validate.Bound{Eq: b.Eq, Gte: b.Gte, Lte: b.Lte, RangeLo: b.RangeLo, RangeHi: b.RangeHi}
}

// SpanExpectations converts every `[[expect.span]]` entry.
func (d *Document) SpanExpectations() []validate.SpanExpectation {
	out := make([]validate.SpanExpectation, 0, len(d.Expect.Span))

	for _, sd := range d.Expect.Span {
		exp := validate.SpanExpectation{
			Name:      sd.Name,
			Parent:    sd.Parent,
			Kind:      sd.Kind,
			AttrsAll:  sd.AttrsAll,
			AttrsAny:  sd.AttrsAny,
			EventsAny: sd.EventsAny,
		}

		if sd.DurationMS != nil {
			exp.Duration = validate.DurationBound{MinMillis: sd.DurationMS.Min, MaxMillis: sd.DurationMS.Max}
		}

		out = append(out, exp)
	}

	return out
}

// GraphExpectation converts the single `[expect.graph]` table.
func (d *Document) GraphExpectation() validate.GraphExpectation {
	g := d.Expect.Graph

	return validate.GraphExpectation{
		MustInclude:  g.MustInclude,
		MustNotCross: g.MustNotCross,
		Acyclic:      g.Acyclic,
	}
}

// CountsExpectation converts the single `[expect.counts]` table.
func (d *Document) CountsExpectation() validate.CountsExpectation {
	c := d.Expect.Counts

	exp := validate.CountsExpectation{
		SpansTotal:  boundPtr(c.SpansTotal),
		EventsTotal: boundPtr(c.EventsTotal),
		ErrorsTotal: boundPtr(c.ErrorsTotal),
	}

	if len(c.ByName) > 0 {
		exp.ByName = make(map[string]validate.Bound, len(c.ByName))
		for name, b := range c.ByName {
			bound := b
			exp.ByName[name] = toBound(&bound)
		}
	}

	return exp
}

func boundPtr(b *BoundDoc) *validate.Bound {
	if b == nil {
		return nil
	}

	bound := toBound(b)

	return &bound
}

// WindowExpectations converts every `[[expect.window]]` entry.
func (d *Document) WindowExpectations() []validate.WindowExpectation {
	out := make([]validate.WindowExpectation, 0, len(d.Expect.Window))

	for _, w := range d.Expect.Window {
		out = append(out, validate.WindowExpectation{Outer: w.Outer, Contains: w.Contains})
	}

	return out
}

// OrderExpectation converts the single `[expect.order]` table.
func (d *Document) OrderExpectation() validate.OrderExpectation {
	o := d.Expect.Order

	return validate.OrderExpectation{MustPrecede: o.MustPrecede, MustFollow: o.MustFollow}
}

// StatusExpectation converts the single `[expect.status]` table.
func (d *Document) StatusExpectation() validate.StatusExpectation {
	s := d.Expect.Status

	out := validate.StatusExpectation{All: s.All}
	for _, b := range s.ByName {
		out.ByName = append(out.ByName, validate.StatusByName{Pattern: b.Pattern, Status: b.Status})
	}

	return out
}

// ExporterKind converts the `[otel].exporter` string into the
// transport package's typed kind, defaulting to ExporterOTLP — the
// `[otel]` table's own default per spec.md §4.8 — when unset.
func (d *Document) ExporterKind() transport.ExporterKind {
	switch d.OTel.Exporter {
	case "", "otlp":
		return transport.ExporterOTLP
	case "stdout":
		return transport.ExporterStdout
	case "none":
		return transport.ExporterNone
	default:
		return transport.ExporterKind(d.OTel.Exporter)
	}
}

// HermeticityExpectation converts the single `[expect.hermeticity]` table.
func (d *Document) HermeticityExpectation() validate.HermeticityExpectation {
	h := d.Expect.Hermeticity

	return validate.HermeticityExpectation{
		NoExternalServices:        h.NoExternalServices,
		AllowlistHosts:            h.AllowlistHosts,
		ResourceAttrsMustMatch:    h.ResourceAttrsMustMatch,
		SDKResourceAttrsMustMatch: h.SDKResourceAttrsMustMatch,
		SpanAttrsForbidKeys:       h.SpanAttrsForbidKeys,
	}
}
