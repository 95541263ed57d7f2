package matching

import "quote-workers/internal/models"

// projectTypeKeywords maps each project type to the specialty keywords that
// earn primary specialty credit. OTHER has no keywords.
var projectTypeKeywords = map[models.ProjectType][]string{
	models.ProjectTypeWebDevelopment:    {"web development", "frontend", "backend", "fullstack"},
	models.ProjectTypeMobileApp:         {"mobile", "ios", "android", "react native", "flutter"},
	models.ProjectTypeAIML:              {"ai", "machine learning", "ml", "deep learning", "data science"},
	models.ProjectTypeSystemIntegration: {"system integration", "erp", "api", "integration"},
	models.ProjectTypeConsulting:        {"consulting", "it consulting", "strategy"},
	models.ProjectTypeMaintenance:       {"maintenance", "support", "operations"},
	models.ProjectTypeOther:             {},
}

// ProjectTypeKeywords returns a copy of the keyword list for projectType.
func ProjectTypeKeywords(projectType models.ProjectType) []string {
	kws := projectTypeKeywords[projectType]
	out := make([]string, len(kws))
	copy(out, kws)
	return out
}
