package policy

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// codeRefPattern matches the audited_code policy's required code_ref shape,
// e.g. "git:abc1234" or "oci:deadbeef...". Kept loose (a scheme
// prefix plus a hex-ish commit/digest) since spec.md leaves the exact VCS
// vocabulary open.
var codeRefPattern = regexp.MustCompile(`^[a-z]+:[0-9a-f]{7,64}$`)

func checkKeyErasure(ctx *Context) error {
	if ctx.KeyErasure == nil {
		return fmt.Errorf("no key_erasure declared")
	}
	if strings.TrimSpace(ctx.KeyErasure.Evidence) == "" {
		return fmt.Errorf("key_erasure evidence is empty")
	}
	return nil
}

func checkRegionPrefix(prefix string) CheckFunc {
	return func(ctx *Context) error {
		if ctx.Environment == nil || ctx.Environment.Region == "" {
			return fmt.Errorf("no environment.region declared")
		}
		if !strings.HasPrefix(strings.ToLower(ctx.Environment.Region), prefix) {
			return fmt.Errorf("region %q does not match required prefix %q", ctx.Environment.Region, prefix)
		}
		return nil
	}
}

func checkTTL(seconds int) CheckFunc {
	bound := time.Duration(seconds) * time.Second
	return func(ctx *Context) error {
		if ctx.StartTime.IsZero() {
			return fmt.Errorf("no start_time declared")
		}
		elapsed := ctx.now().Sub(ctx.StartTime)
		if elapsed > bound {
			return fmt.Errorf("elapsed %s exceeds ttl bound %s", elapsed, bound)
		}
		return nil
	}
}

func checkCodeRefFormat(ctx *Context) error {
	if !codeRefPattern.MatchString(ctx.CodeRef) {
		return fmt.Errorf("code_ref %q does not match required shape scheme:hex", ctx.CodeRef)
	}
	return nil
}

func transformRedact(ctx *Context, input []byte) ([]byte, error) {
	if ctx.Redactor == nil {
		return input, nil
	}
	out, err := ctx.Redactor(input)
	if err != nil {
		return nil, fmt.Errorf("policy: redact_pii transform: %w", err)
	}
	return out, nil
}
