package orchestrator

import (
	"context"
	"regexp"
	"strings"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

const defaultClarifyQuestion = "Could you describe what you want to build or change? " +
	"For example the kind of site, its sections or the style you are after."

var (
	greetingRe = regexp.MustCompile(`^(hi|hello|hey|hej|hallå|thanks|thank you|tack)\b`)
	questionRe = regexp.MustCompile(`^(what|why|how|who|when|can you explain|vad|varför|hur)\b`)
)

var (
	imageWords = []string{
		"image", "picture", "photo", "illustration", "logo", "icon set", "artwork", "bild", "foto",
	}
	searchWords = []string{
		"search", "look up", "latest", "research", "find information", "competitor", "news about", "sök",
	}
	codeWords = []string{
		"website", "site", "page", "landing", "component", "section", "header", "footer", "hero",
		"button", "layout", "navbar", "contact form", "color", "colour", "font", "dark mode", "responsive",
		"hemsida", "webbplats", "sida",
	}
	codeVerbs = []string{
		"build", "create", "make", "add", "change", "update", "remove", "fix", "move", "replace",
		"skapa", "bygg", "ändra", "lägg till",
	}
)

// HeuristicClassifier 基于关键词规则的分类器，不依赖外部服务
type HeuristicClassifier struct{}

var _ Classifier = HeuristicClassifier{}

// Classify 实现 Classifier
func (HeuristicClassifier) Classify(_ context.Context, req *entity.WorkflowRequest) (*Classification, error) {
	c := classifyByRules(req)
	c.Source = SourceHeuristic
	applyRefinementBias(req, c)
	fillDefaults(req, c)
	return c, nil
}

func classifyByRules(req *entity.WorkflowRequest) *Classification {
	lower := strings.ToLower(strings.TrimSpace(req.Prompt))
	words := strings.Fields(lower)

	wantsImage := containsAny(lower, imageWords)
	wantsSearch := containsAny(lower, searchWords)
	wantsCode := containsAny(lower, codeWords) || (req.IsRefinement() && containsAny(lower, codeVerbs))

	switch {
	case greetingRe.MatchString(lower) && !wantsCode && !wantsImage && !wantsSearch:
		return &Classification{
			Intent:    entity.IntentChatResponse,
			Reasoning: "greeting",
			ChatReply: "Hi! Tell me what kind of website you want and I will build it for you.",
		}
	case questionRe.MatchString(lower) && strings.HasSuffix(lower, "?") && !wantsCode && !wantsImage:
		return &Classification{Intent: entity.IntentChatResponse, Reasoning: "general question"}
	case wantsImage && wantsCode:
		return &Classification{Intent: entity.IntentImageAndCode, Reasoning: "image and code keywords"}
	case wantsSearch && wantsCode:
		return &Classification{Intent: entity.IntentWebSearchAndCode, Reasoning: "search and code keywords"}
	case wantsImage:
		return &Classification{Intent: entity.IntentImageOnly, Reasoning: "image keywords"}
	case wantsSearch:
		return &Classification{Intent: entity.IntentWebSearchOnly, Reasoning: "search keywords"}
	case wantsCode:
		return &Classification{Intent: entity.IntentCodeOnly, Reasoning: "code keywords"}
	case req.IsRefinement() && len(words) >= 2:
		return &Classification{Intent: entity.IntentCodeOnly, Reasoning: "refinement of existing site"}
	default:
		return &Classification{
			Intent:          entity.IntentClarify,
			Reasoning:       "ambiguous request",
			ClarifyQuestion: defaultClarifyQuestion,
		}
	}
}
