package extract

import (
	"infra-planner/pkg/api"
	"infra-planner/pkg/confidence"
)

// vocabRule binds a set of keywords to an enumerated field value. Rules are
// evaluated in priority order (highest first); the first hit wins.
type vocabRule[T ~string] struct {
	value      T
	keywords   []string
	confidence float64
	priority   int
}

// providerRules map provider vocabulary to cloud providers. The multi-cloud
// keywords outrank single providers so "hybrid cloud on aws" resolves to
// multi-cloud rather than AWS.
var providerRules = []vocabRule[api.CloudProvider]{
	{
		value:      api.ProviderMultiCloud,
		keywords:   []string{"multi-cloud", "multicloud", "multi cloud", "hybrid"},
		confidence: confidence.Matched,
		priority:   20,
	},
	{
		value:      api.ProviderAWS,
		keywords:   []string{"aws", "amazon web services", "amazon cloud"},
		confidence: confidence.Explicit,
		priority:   10,
	},
	{
		value:      api.ProviderAzure,
		keywords:   []string{"azure", "microsoft cloud"},
		confidence: confidence.Explicit,
		priority:   10,
	},
	{
		value:      api.ProviderGCP,
		keywords:   []string{"gcp", "google cloud"},
		confidence: confidence.Explicit,
		priority:   10,
	},
}

// securityRules resolve the requested security posture. High-security
// keywords outrank basic ones when both appear.
var securityRules = []vocabRule[api.SecurityLevel]{
	{
		value:      api.SecurityHigh,
		keywords:   []string{"high security", "highly secure", "hipaa", "pci", "soc 2", "soc2", "compliance", "compliant", "encrypted", "encryption", "zero trust"},
		confidence: confidence.Matched,
		priority:   20,
	},
	{
		value:      api.SecurityBasic,
		keywords:   []string{"basic security", "low security", "no sensitive data"},
		confidence: confidence.Matched,
		priority:   10,
	},
}

// architectureRules resolve an explicit architecture hint. A hybrid hint
// outranks the others so a "hybrid serverless setup" plans as hybrid.
var architectureRules = []vocabRule[api.ArchitectureHint]{
	{
		value:      api.HintHybrid,
		keywords:   []string{"hybrid"},
		confidence: confidence.Matched,
		priority:   40,
	},
	{
		value:      api.HintServerless,
		keywords:   []string{"serverless", "lambda", "faas", "cloud functions", "function-as-a-service"},
		confidence: confidence.Matched,
		priority:   30,
	},
	{
		value:      api.HintMicroservices,
		keywords:   []string{"microservices", "micro-services", "kubernetes", "k8s", "eks", "aks", "gke", "ecs", "containers", "container orchestration"},
		confidence: confidence.Matched,
		priority:   20,
	},
	{
		value:      api.HintMonolithic,
		keywords:   []string{"monolith", "monolithic", "single-tier", "single tier", "web app", "webapp", "website"},
		confidence: confidence.Matched,
		priority:   10,
	},
}

// uptimePhrases map spelled-out availability targets to percentages. Checked
// in order, tightest target first, so a request naming several resolves to
// the same one on every call.
var uptimePhrases = []struct {
	phrase string
	pct    float64
}{
	{"five nines", 99.999},
	{"four nines", 99.99},
	{"three nines", 99.9},
}
