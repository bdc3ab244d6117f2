package generate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// ValidatorFailure captures the last validation rejection for diagnostics.
type ValidatorFailure struct {
	Model   string   `json:"model"`
	Rule    string   `json:"rule"`
	Fields  []string `json:"fields,omitempty"`
	Message string   `json:"message"`
}

// validatorSet holds the compiled rules of one model. Programs compile once
// at first use and are cached for the generator's lifetime.
type validatorSet struct {
	rules []compiledRule
}

type compiledRule struct {
	def     schema.ValidatorDef
	program *vm.Program
	fields  []string
}

var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// compileValidators compiles a model's validator rules. A rule that fails to
// compile is a configuration error surfaced before generation begins.
func compileValidators(model *schema.ModelDef) (*validatorSet, error) {
	set := &validatorSet{}
	for _, def := range model.Rules {
		program, err := expr.Compile(def.Rule,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
			expr.AsBool(),
		)
		if err != nil {
			return nil, fmt.Errorf("model %s: validator %q: %w", model.QualifiedName(), def.Name, err)
		}
		set.rules = append(set.rules, compiledRule{
			def:     def,
			program: program,
			fields:  implicatedFields(model, def.Rule),
		})
	}
	return set, nil
}

// validate runs every rule against a candidate instance. The first failing
// rule is returned; nil means the candidate passed.
func (s *validatorSet) validate(model *schema.ModelDef, instance map[string]any) *ValidatorFailure {
	for _, rule := range s.rules {
		env := make(map[string]any, len(instance))
		for k, v := range instance {
			env[k] = v
		}
		out, err := expr.Run(rule.program, env)
		if err != nil {
			return &ValidatorFailure{
				Model:   model.QualifiedName(),
				Rule:    rule.def.Name,
				Fields:  rule.fields,
				Message: err.Error(),
			}
		}
		if ok, _ := out.(bool); !ok {
			return &ValidatorFailure{
				Model:   model.QualifiedName(),
				Rule:    rule.def.Name,
				Fields:  rule.fields,
				Message: fmt.Sprintf("rule %q evaluated to false", rule.def.Name),
			}
		}
	}
	return nil
}

// implicatedFields lists the model fields referenced by a rule expression,
// by identifier match. Used to annotate failures with the offending fields.
func implicatedFields(model *schema.ModelDef, rule string) []string {
	idents := make(map[string]bool)
	for _, m := range identPattern.FindAllString(rule, -1) {
		idents[m] = true
	}
	var fields []string
	for i := range model.Fields {
		name := model.Fields[i].Name
		if idents[name] && !containsString(fields, name) {
			fields = append(fields, name)
		}
	}
	return fields
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// classifyRuleFailure derives a failure-category hint from the rule text so
// reporter entries stay actionable even for opaque expressions.
func classifyRuleFailure(rule string) string {
	switch {
	case strings.Contains(rule, ">=") || strings.Contains(rule, "<=") ||
		strings.Contains(rule, " > ") || strings.Contains(rule, " < "):
		return "numeric"
	case strings.Contains(rule, "len("):
		return "length"
	default:
		return "generic"
	}
}
