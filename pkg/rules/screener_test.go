package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"warden/pkg/rules"
)

func TestStaticScreener_AllowsCleanCode(t *testing.T) {
	s := rules.NewStaticScreener(nil)
	res := s.Screen("def rule(employee, security, trade_date):\n    return {'allowed': True}\n")
	assert.True(t, res.OK)
}

func TestStaticScreener_RejectsDenylistedPattern(t *testing.T) {
	s := rules.NewStaticScreener(nil)
	res := s.Screen("import os\nos.system('rm -rf /')\n")
	assert.False(t, res.OK)
	assert.Equal(t, "import os", res.Pattern)
}

func TestStaticScreener_CaseInsensitive(t *testing.T) {
	s := rules.NewStaticScreener(nil)
	res := s.Screen("IMPORT OS\n")
	assert.False(t, res.OK)
}

func TestStaticScreener_CustomDenylist(t *testing.T) {
	s := rules.NewStaticScreener([]string{"forbidden_call("})
	assert.True(t, s.Screen("import os\n").OK)
	assert.False(t, s.Screen("forbidden_call()\n").OK)
}
