package regex

import "regexp"

var (
	// Release patterns
	SemVer = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)`)

	// Commit message signals
	LowSignalCommit = regexp.MustCompile(`(?i)\b(alpha|test|wip|beta|experimental|todo|fix typo)`)

	// Repository classification
	TutorialKeywords   = regexp.MustCompile(`(?i)\b(tutorial|example|demo|starter|template|boilerplate|sample|learning|course|practice|exercise|playground|sandbox|hello-world)`)
	ProductionKeywords = regexp.MustCompile(`(?i)\b(framework|library|tool|platform|engine|system|service|api|production|enterprise)`)
	CIConfigFile       = regexp.MustCompile(`(?i)^(\.travis\.yml|\.gitlab-ci\.yml|jenkinsfile|azure-pipelines\.yml|\.circleci|appveyor\.yml|\.drone\.yml)$`)
	ChangelogFile      = regexp.MustCompile(`(?i)^(changelog|changes|history|news)(\.(md|rst|txt))?$`)

	// Repository identifiers
	FullName  = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	HTTPSRepo = regexp.MustCompile(`https://([^/]+)/([^/]+)/(.+?)(?:\.git)?/?$`)

	// AI and JSON parsing
	MarkdownJSONBlock = regexp.MustCompile("(?s)```(?:json)?\n?(.*?)```")

	// Pre-filter subprocess payload
	PrefilterPayload = regexp.MustCompile(`(?s)__REPO_JSON__(.*?)__END_JSON__`)
)
