package categorize

import "github.com/netra-systems/zen-triage/internal/types"

// typeRule maps a substring of a lowercased error type name directly to a
// category. Direct type matches take precedence over text pattern matches.
type typeRule struct {
	substring string
	category  types.Category
}

// patternRule maps a category to the text patterns that indicate it.
// Table order is significant: the first category with a matching pattern
// wins, so more specific categories sit above generic ones.
type patternRule struct {
	category types.Category
	patterns []string
}

// defaultTypeRules is checked against the lowercased error type name.
// Order matters here too: "authenticationerror" must be tested before the
// bare "auth" style substrings further down would be.
var defaultTypeRules = []typeRule{
	{"authenticationerror", types.CategoryAuthentication},
	{"loginerror", types.CategoryAuthentication},
	{"tokenexpired", types.CategoryAuthentication},
	{"authorizationerror", types.CategoryAuthorization},
	{"permissionerror", types.CategoryAuthorization},
	{"forbiddenerror", types.CategoryAuthorization},
	{"integrityerror", types.CategoryDatabase},
	{"operationalerror", types.CategoryDatabase},
	{"databaseerror", types.CategoryDatabase},
	{"sqlerror", types.CategoryDatabase},
	{"connectionerror", types.CategoryNetwork},
	{"timeouterror", types.CategoryNetwork},
	{"dnserror", types.CategoryNetwork},
	{"socketerror", types.CategoryNetwork},
	{"validationerror", types.CategoryValidation},
	{"valueerror", types.CategoryValidation},
	{"schemaerror", types.CategoryValidation},
	{"modulenotfounderror", types.CategoryDependency},
	{"importerror", types.CategoryDependency},
	{"dependencyerror", types.CategoryDependency},
	{"memoryerror", types.CategoryPerformance},
	{"configurationerror", types.CategoryConfiguration},
	{"configerror", types.CategoryConfiguration},
	{"integrationerror", types.CategoryIntegration},
	{"apierror", types.CategoryIntegration},
}

// defaultPatternRules is scanned against normalized message + stack trace
// when no type rule matched.
var defaultPatternRules = []patternRule{
	{types.CategoryAuthentication, []string{
		"authentication failed", "login failed", "invalid credentials",
		"token expired", "invalid token", "unauthorized", "signature verification",
	}},
	{types.CategoryAuthorization, []string{
		"permission denied", "access denied", "forbidden", "not authorized",
		"insufficient privileges",
	}},
	{types.CategoryDatabase, []string{
		"database", "deadlock", "duplicate key", "constraint violation",
		"connection pool", "sql", "transaction rolled back", "relation does not exist",
	}},
	{types.CategoryNetwork, []string{
		"connection refused", "connection reset", "timed out", "timeout",
		"dns", "unreachable", "socket", "broken pipe",
	}},
	{types.CategoryValidation, []string{
		"validation", "invalid input", "missing required", "malformed",
		"schema", "bad request", "unexpected type",
	}},
	{types.CategoryDependency, []string{
		"no module named", "cannot import", "import error", "package not found",
		"version conflict", "dependency",
	}},
	{types.CategoryPerformance, []string{
		"out of memory", "memory leak", "slow query", "high cpu",
		"too many open files", "rate limit",
	}},
	{types.CategoryConfiguration, []string{
		"configuration", "environment variable", "missing setting",
		"config file", "invalid config",
	}},
	{types.CategoryBusinessLogic, []string{
		"business rule", "invariant", "illegal state", "workflow",
	}},
	{types.CategoryIntegration, []string{
		"webhook", "external service", "third-party", "upstream", "api error",
	}},
	{types.CategoryInfrastructure, []string{
		"disk full", "no space left", "host down", "kubernetes", "container",
		"pod evicted", "node not ready",
	}},
}

// defaultCriticalIndicators force critical severity regardless of other signals
var defaultCriticalIndicators = []string{
	"system down",
	"data corruption",
	"security breach",
	"data loss",
	"total outage",
	"cannot start",
}

// defaultHighIndicators raise severity to high
var defaultHighIndicators = []string{
	"crash",
	"panic",
	"unhandled exception",
	"service degraded",
	"failed to process",
	"fatal",
}
