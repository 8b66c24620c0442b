package assistant

import (
	"regexp"
	"strings"
	"time"
)

// Canned responses returned with classified actions.
const (
	respNoMessage  = "I didn't receive any message."
	respNoUserTurn = "I'm waiting for your instructions."
	respHelp       = "I can add, list, complete, snooze, reschedule or free up your schedule. Try: 'Free up tomorrow afternoon'."
)

var (
	freeUpPat     = regexp.MustCompile(`free up|make time|clear (?:my )?(?:day|afternoon|morning)`)
	addStripPat   = regexp.MustCompile(`(?i)^(add|create|schedule|new task)\s+`)
	completePat   = regexp.MustCompile(`(?i)(?:complete|finish|done with) (.+)`)
	snoozePat     = regexp.MustCompile(`(?i)snooze (.+?) by (\d+)(m|h|d)`)
	reschedulePat = regexp.MustCompile(`(?i)(?:reschedule|move) (.+?) to (.+)`)
	deletePat     = regexp.MustCompile(`(?i)(?:delete|remove) (.+)`)
)

// priorityKeywords is scanned in order, so "high" wins when a message
// mentions more than one level.
var priorityKeywords = []struct {
	keyword string
	tag     string
}{
	{"high", PriorityHigh},
	{"medium", PriorityMedium},
	{"low", PriorityLow},
}

// rule is one entry of the ordered intent table: a trigger predicate over
// the lowercased input and an extractor that builds entities plus the canned
// response. Rules are evaluated in order and the first match wins, so a
// message containing both "schedule" and "remove" classifies as ADD_TASK.
type rule struct {
	intent Intent
	match  func(lower string) bool
	build  func(c *Classifier, text, lower string) (Entities, string)
}

// Classifier derives a single Action from the most recent user message of a
// conversation. It is a fixed rule table, not a learned model; ambiguity is
// resolved purely by rule order.
type Classifier struct {
	rules []rule
	now   func() time.Time
}

func NewClassifier() *Classifier {
	c := &Classifier{now: func() time.Time { return time.Now().UTC() }}
	c.rules = []rule{
		{IntentFreeUp, matchFreeUp, buildFreeUp},
		{IntentAddTask, matchAny("add ", "create", "remind me", "schedule", "new task"), buildAdd},
		{IntentCompleteTask, matchAny("complete", "mark done", "finish", "done with"), buildComplete},
		{IntentListTasks, matchAny("list", "show", "what's due", "what is due", "tasks for"), buildList},
		{IntentSnoozeTask, matchAny("snooze", "delay"), buildSnooze},
		{IntentRescheduleTask, matchAny("reschedule", "move"), buildReschedule},
		{IntentDeleteTask, matchAny("delete", "remove"), buildDelete},
	}
	return c
}

// Classify inspects the conversation and returns exactly one Action. An
// empty conversation or one without a user turn yields UNKNOWN with no
// entities.
func (c *Classifier) Classify(conversation []Message) Action {
	if len(conversation) == 0 {
		return Action{Intent: IntentUnknown, Response: respNoMessage}
	}

	var last *Message
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == "user" {
			last = &conversation[i]
			break
		}
	}
	if last == nil {
		return Action{Intent: IntentUnknown, Response: respNoUserTurn}
	}

	text := strings.TrimSpace(last.Content)
	lower := strings.ToLower(text)

	for _, r := range c.rules {
		if r.match(lower) {
			entities, response := r.build(c, text, lower)
			return Action{Intent: r.intent, Entities: entities, Response: response}
		}
	}
	return Action{Intent: IntentUnknown, Response: respHelp}
}

func matchAny(keywords ...string) func(string) bool {
	return func(lower string) bool {
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
		return false
	}
}

func matchFreeUp(lower string) bool {
	return freeUpPat.MatchString(lower)
}

func buildFreeUp(c *Classifier, _, lower string) (Entities, string) {
	target := c.resolveOrNow(lower)
	return Entities{TargetDate: &target}, "Let me see which tasks we can postpone to free some time."
}

func buildAdd(c *Classifier, text, lower string) (Entities, string) {
	e := Entities{Description: addStripPat.ReplaceAllString(text, "")}

	due, ok := ResolveTime(lower, c.now())
	if !ok {
		due = c.now().Add(time.Hour)
	}
	e.DueDate = &due

	for _, p := range priorityKeywords {
		if strings.Contains(lower, p.keyword) {
			e.Priority = p.tag
			break
		}
	}
	return e, "Adding that task."
}

func buildComplete(_ *Classifier, text, _ string) (Entities, string) {
	var e Entities
	if m := completePat.FindStringSubmatch(text); m != nil {
		e.Description = strings.TrimSpace(m[1])
	}
	return e, "Marking it complete if I find it."
}

func buildList(c *Classifier, _, lower string) (Entities, string) {
	target := c.resolveOrNow(lower)
	return Entities{TargetDate: &target}, "Here is what I found."
}

func buildSnooze(_ *Classifier, text, _ string) (Entities, string) {
	var e Entities
	if m := snoozePat.FindStringSubmatch(text); m != nil {
		e.Description = strings.TrimSpace(m[1])
		e.Duration = m[2] + m[3]
	}
	// No submatch leaves the entities empty; the dispatcher prompts instead.
	return e, "Attempting a snooze."
}

func buildReschedule(c *Classifier, text, _ string) (Entities, string) {
	var e Entities
	if m := reschedulePat.FindStringSubmatch(text); m != nil {
		e.Description = strings.TrimSpace(m[1])
		if nd, ok := ResolveTime(m[2], c.now()); ok {
			e.NewDate = &nd
		}
	}
	return e, "Trying to update its date."
}

func buildDelete(_ *Classifier, text, _ string) (Entities, string) {
	var e Entities
	if m := deletePat.FindStringSubmatch(text); m != nil {
		e.Description = strings.TrimSpace(m[1])
	}
	return e, "Removing if it exists."
}

func (c *Classifier) resolveOrNow(text string) time.Time {
	if t, ok := ResolveTime(text, c.now()); ok {
		return t
	}
	return c.now()
}
