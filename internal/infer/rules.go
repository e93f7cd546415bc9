package infer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"studydesk/internal/task"
)

// keywords matches when any of its words starts a word in the text, so
// "meet" finds "meeting" while "low" ignores "follow". Prefixed forms such
// as "reassess" need their own entry.
type keywords struct {
	re *regexp.Regexp
}

func anyOf(words ...string) keywords {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return keywords{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)`)}
}

func (k keywords) match(s string) bool {
	return k.re.MatchString(s)
}

type describeRule struct {
	when     keywords
	template string
}

// Each template takes the cleaned title once.
var describeRules = []describeRule{
	{anyOf("meet", "call", "discussion"), `Prepare for the "%s" by creating a detailed agenda, sending calendar invitations to all required participants, and gathering any necessary pre-meeting materials. During the meeting, take comprehensive notes and identify action items. Follow up with a summary and track progress on assigned tasks.`},
	{anyOf("report", "document", "write"), `Create a comprehensive report on "%s". Begin with an outline of key sections, gather all relevant data and references, and organize content logically. Include an executive summary, detailed analysis, and clear recommendations. Format professionally with appropriate graphs or visuals, and proofread thoroughly before submission.`},
	{anyOf("review", "feedback", "assess", "reassess"), `Conduct a thorough review of "%s". Create a structured evaluation framework with clear criteria. Examine all aspects critically, noting both strengths and areas for improvement. Provide specific, actionable feedback supported by examples, and prioritize recommendations based on impact.`},
	{anyOf("present", "speech", "talk"), `Prepare and deliver a compelling presentation on "%s". Develop a clear narrative structure with a strong opening and conclusion. Create visually engaging slides that support your key points without overwhelming them. Practice your delivery focusing on timing, clarity, and engagement. Prepare responses for anticipated questions and test all technical equipment beforehand.`},
	{anyOf("research", "study", "investigate"), `Conduct comprehensive research on "%s". Define specific questions or hypotheses to investigate, identify reliable information sources, and document your methodology. Analyze findings critically, looking for patterns and insights. Create a structured summary of key findings with supporting evidence and identify areas for further investigation.`},
	{anyOf("plan", "strategy", "roadmap"), `Develop a detailed plan for "%s". Begin by defining clear, measurable objectives and success criteria. Break down the implementation into specific phases with milestones, required resources, and owners. Identify potential risks and mitigation strategies. Create a timeline with dependencies and critical path analysis. Include a process for monitoring progress and making adjustments.`},
	{anyOf("design", "create", "develop", "build"), `Design and develop "%s" with a user-centered approach. Begin with requirements gathering and user research to understand needs and constraints. Create conceptual designs or prototypes for early feedback. Develop iteratively, incorporating stakeholder input at each stage. Test thoroughly before finalizing, and document your process and decisions for future reference.`},
	{anyOf("email", "message", "contact"), `Compose a clear and effective communication regarding "%s". Outline the key messages you need to convey, considering your audience and desired outcome. Draft your message with a logical structure, beginning with the main purpose, followed by supporting details. Include specific actions required from recipients, relevant deadlines, and your contact information for follow-up questions. Review for clarity, tone, and completeness before sending.`},
	{anyOf("update", "upgrade", "improve"), `Update or improve "%s" by first assessing its current state and identifying specific areas for enhancement. Research best practices and gather input from stakeholders or users. Develop a prioritized list of changes based on impact and effort required. Implement improvements systematically, testing each change to ensure it achieves the desired outcome. Document all modifications for future reference.`},
	{anyOf("organize", "arrange", "schedule"), `Organize "%s" by establishing clear objectives and defining the scope. Create a comprehensive checklist of all required elements and tasks. Develop a logical structure or timeline, assign responsibilities if others are involved, and secure necessary resources. Set up tracking systems to monitor progress, and build in contingency plans for potential complications. Communicate relevant information to all parties involved.`},
	{anyOf("learn", "study", "course"), `Create a structured learning plan for "%s". Identify specific topics to master and learning objectives. Gather recommended resources such as books, courses, tutorials or documentation. Break down the material into manageable sections and establish a realistic study schedule. Include practical exercises to reinforce concepts, and set up a system to track your progress and test your understanding.`},
	{anyOf("fix", "repair", "solve"), `Address the issues with "%s" by first thoroughly diagnosing the root causes. Document the specific symptoms and when they occur. Research potential solutions and best practices. Develop a systematic approach to implementing repairs, testing each change incrementally. Verify that all problems have been resolved through comprehensive testing, and document the solution for future reference.`},
	{anyOf("analyze", "evaluate", "examine"), `Conduct a detailed analysis of "%s". Define the specific aspects to evaluate and establish appropriate analytical methods. Gather all necessary data from reliable sources, ensuring it's complete and accurate. Apply structured analytical techniques to identify patterns, trends, and insights. Document your methodology, findings, and recommendations in a clear, logical format.`},
}

const genericTemplate = `Complete "%s" by first breaking it down into specific, actionable steps. Prioritize these components based on importance and dependencies. Identify any resources, information, or assistance you'll need. Set interim milestones to track progress, allocate appropriate time for each phase, and build in review points to ensure quality. Document your process and any decisions made for future reference.`

// Describe returns the description template for the first rule the title
// matches, filled in with the title.
func Describe(title string) string {
	title = collapse(title)
	for _, r := range describeRules {
		if r.when.match(title) {
			return fmt.Sprintf(r.template, title)
		}
	}
	return fmt.Sprintf(genericTemplate, title)
}

var priorityRules = []struct {
	when     keywords
	priority task.Priority
}{
	{anyOf("urgent", "asap", "emergency", "immediately"), task.PriorityUrgent},
	{anyOf("important", "high", "critical", "priority"), task.PriorityHigh},
	{anyOf("low", "whenever", "if time"), task.PriorityLow},
}

func InferPriority(title string) task.Priority {
	for _, r := range priorityRules {
		if r.when.match(title) {
			return r.priority
		}
	}
	return task.PriorityNormal
}

// DefaultInferredCategory is used when no category rule matches.
const DefaultInferredCategory = "Work"

var categoryRules = []struct {
	when     keywords
	category string
}{
	{anyOf("meet", "call", "discussion"), "Meetings"},
	{anyOf("research", "study", "learn"), "Research"},
	{anyOf("project", "develop", "build"), "Projects"},
	{anyOf("document", "report", "write"), "Documentation"},
	{anyOf("personal", "my", "self"), "Personal"},
	{anyOf("learn", "course", "study"), "Learning"},
	{anyOf("admin", "organize", "manage"), "Admin"},
	{anyOf("email", "call", "message"), "Communication"},
}

func InferCategory(title string) string {
	for _, r := range categoryRules {
		if r.when.match(title) {
			return r.category
		}
	}
	return DefaultInferredCategory
}

// MaxSuggestedTags caps SuggestTags.
const MaxSuggestedTags = 3

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "for": {},
	"with": {}, "to": {}, "in": {}, "on": {}, "at": {}, "by": {},
}

// SuggestTags picks up to three distinct lower-cased words longer than two
// letters that are not stop words, in title order. Tokens without a letter,
// such as leftover dates or counts, are skipped.
func SuggestTags(title string) task.Tags {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if utf8.RuneCountInString(w) <= 2 || strings.Contains(w, task.TagSeparator) || !strings.ContainsFunc(w, unicode.IsLetter) {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		words = append(words, w)
	}
	tags := task.NewTags(words...)
	if len(tags) > MaxSuggestedTags {
		tags = tags[:MaxSuggestedTags]
	}
	return tags
}
