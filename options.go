package preserve

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alnah/go-preserve/internal/pipeline"
)

// SettingName is the store key holding the persisted options record.
const SettingName = "preserve_code_formatting"

// Option keys as they appear in the persisted record and in Update maps.
const (
	KeyPreserveTags       = "preserve_tags"
	KeyPreserveInPosts    = "preserve_in_posts"
	KeyPreserveInComments = "preserve_in_comments"
	KeyWrapMultilineCode  = "wrap_multiline_code_in_pre"
	KeyUseNBSPForSpaces   = "use_nbsp_for_spaces"
	KeyNL2BR              = "nl2br"
)

// Keys lists every recognized option key in record order.
var Keys = []string{
	KeyPreserveTags,
	KeyPreserveInPosts,
	KeyPreserveInComments,
	KeyWrapMultilineCode,
	KeyUseNBSPForSpaces,
	KeyNL2BR,
}

// MaxTags bounds the number of preserved tag names.
const MaxTags = 64

// Options controls which regions are preserved and how they are rendered.
type Options struct {
	// PreserveTags names the elements whose content is protected.
	PreserveTags []string `yaml:"preserve_tags" validate:"dive,tagname"`
	// PreserveInPosts enables the content and excerpt channels.
	PreserveInPosts bool `yaml:"preserve_in_posts"`
	// PreserveInComments enables the comment channel.
	PreserveInComments bool `yaml:"preserve_in_comments"`
	// WrapMultilineCode wraps multi-line code regions in <pre>.
	WrapMultilineCode bool `yaml:"wrap_multiline_code_in_pre"`
	// UseNBSPForSpaces turns runs of two or more spaces into &nbsp;.
	UseNBSPForSpaces bool `yaml:"use_nbsp_for_spaces"`
	// NL2BR appends <br /> to every line break inside a region.
	NL2BR bool `yaml:"nl2br"`
}

// DefaultOptions returns the options used when nothing is persisted.
func DefaultOptions() Options {
	return Options{
		PreserveTags:       []string{"code", "pre"},
		PreserveInPosts:    true,
		PreserveInComments: true,
		WrapMultilineCode:  true,
		UseNBSPForSpaces:   true,
		NL2BR:              false,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once

	tagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)
)

func optionsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("tagname", func(fl validator.FieldLevel) bool {
			return tagNamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks tag names and list size. Tag names must already be
// normalized: lower case, trimmed.
func (o Options) Validate() error {
	if len(o.PreserveTags) > MaxTags {
		return fmt.Errorf("%w: %s: at most %d tags", ErrInvalidOption, KeyPreserveTags, MaxTags)
	}
	err := optionsValidator().Struct(o)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	return fmt.Errorf("%w: %s", ErrInvalidOption, formatValidationError(verrs[0]))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "tagname":
		return fmt.Sprintf("%s: %q is not a valid tag name", KeyPreserveTags, e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s'", e.Namespace(), e.Tag())
	}
}

// Preserves reports whether extraction runs for the channel.
func (o Options) Preserves(ch Channel) bool {
	switch ch {
	case ChannelContent, ChannelExcerpt:
		return o.PreserveInPosts
	case ChannelComment:
		return o.PreserveInComments
	default:
		return false
	}
}

// Clone returns a copy that shares no memory with o.
func (o Options) Clone() Options {
	o.PreserveTags = append([]string(nil), o.PreserveTags...)
	return o
}

// AsMap returns the options keyed by their record names.
func (o Options) AsMap() map[string]any {
	return map[string]any{
		KeyPreserveTags:       append([]string(nil), o.PreserveTags...),
		KeyPreserveInPosts:    o.PreserveInPosts,
		KeyPreserveInComments: o.PreserveInComments,
		KeyWrapMultilineCode:  o.WrapMultilineCode,
		KeyUseNBSPForSpaces:   o.UseNBSPForSpaces,
		KeyNL2BR:              o.NL2BR,
	}
}

func (o Options) rules() pipeline.Rules {
	return pipeline.Rules{
		WrapMultilineCode: o.WrapMultilineCode,
		NBSPForSpaces:     o.UseNBSPForSpaces,
		NL2BR:             o.NL2BR,
	}
}

// MergeOptions applies the recognized keys of partial onto base and returns
// the result with the keys it ignored, sorted. Keys are matched after
// trimming and lower-casing. A recognized key with a value of the wrong
// shape fails with ErrInvalidOption; base is never modified.
func MergeOptions(base Options, partial map[string]any) (Options, []string, error) {
	out := base.Clone()
	var ignored []string

	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		value := partial[raw]
		key := strings.ToLower(strings.TrimSpace(raw))

		var err error
		switch key {
		case KeyPreserveTags:
			out.PreserveTags, err = parseTags(value)
		case KeyPreserveInPosts:
			out.PreserveInPosts, err = parseBool(value)
		case KeyPreserveInComments:
			out.PreserveInComments, err = parseBool(value)
		case KeyWrapMultilineCode:
			out.WrapMultilineCode, err = parseBool(value)
		case KeyUseNBSPForSpaces:
			out.UseNBSPForSpaces, err = parseBool(value)
		case KeyNL2BR:
			out.NL2BR, err = parseBool(value)
		default:
			ignored = append(ignored, raw)
			continue
		}
		if err != nil {
			return base, nil, fmt.Errorf("%w: %s: %v", ErrInvalidOption, key, err)
		}
	}

	out.PreserveTags = pipeline.NormalizeTags(out.PreserveTags)
	if err := out.Validate(); err != nil {
		return base, nil, err
	}
	return out, ignored, nil
}

// parseTags accepts a list of strings or a single comma or space separated
// string.
func parseTags(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case string:
		return strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		}), nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		tags := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is %T, want string", i, item)
			}
			tags = append(tags, s)
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("got %T, want a list or a string", value)
	}
}

// parseBool accepts booleans, 0 and 1, and the usual textual spellings.
func parseBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return intBool(int64(v))
	case int64:
		return intBool(v)
	case uint64:
		if v > 1 {
			return false, fmt.Errorf("%d is not 0 or 1", v)
		}
		return v == 1, nil
	case float64:
		if v != 0 && v != 1 {
			return false, fmt.Errorf("%v is not 0 or 1", v)
		}
		return v == 1, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off", "":
			return false, nil
		}
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
		return false, fmt.Errorf("%q is not a boolean", v)
	default:
		return false, fmt.Errorf("got %T, want a boolean", value)
	}
}

func intBool(v int64) (bool, error) {
	if v != 0 && v != 1 {
		return false, fmt.Errorf("%d is not 0 or 1", v)
	}
	return v == 1, nil
}
