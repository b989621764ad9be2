package generator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/mod/module"

	"github.com/servicekit/go-service-template/errors"
)

// Template identity stamped into the source tree
const (
	TemplateName       = "go-service-template"
	TemplateModulePath = "github.com/servicekit/go-service-template"
	TemplateIdentifier = "go_service_template"
)

// MaxNameLength bounds project names, in characters
const MaxNameLength = 100

const forbiddenNameChars = `<>:"|?*\/`

// Identity names a generated project
type Identity struct {
	// Name is the requested project name, e.g. "billing-service"
	Name string
	// Identifier is the name with hyphens folded to underscores
	Identifier string
	// ImageName is the lowercase Docker image name, e.g. "billing_service"
	ImageName string
	// ModulePath is the Go module path written to go.mod
	ModulePath string
}

// ValidateName rejects names that are empty, longer than MaxNameLength,
// start with '.' or '-', or contain any of < > : " | ? * \ /.
func ValidateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return errors.NewInvalidRequestError("service name must be between 1 and %d characters", MaxNameLength)
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") {
		return errors.NewInvalidRequestError("service name cannot start with '.' or '-'")
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return errors.NewInvalidRequestError(`service name contains invalid characters: < > : " | ? * \ /`)
	}
	return nil
}

// NewIdentity validates name and builds the project identity. An empty
// modulePath defaults to the name lowercased, with characters outside
// [a-z0-9_-] replaced by '-'.
func NewIdentity(name, modulePath string) (Identity, error) {
	if err := ValidateName(name); err != nil {
		return Identity{}, err
	}

	if modulePath == "" {
		modulePath = defaultModulePath(name)
	}
	if err := module.CheckImportPath(modulePath); err != nil {
		return Identity{}, errors.WithHint(
			errors.NewInvalidRequestError("invalid module path %q: %v", modulePath, err),
			"pass an explicit module path, e.g. --module github.com/acme/"+name,
		)
	}

	return Identity{
		Name:       name,
		Identifier: strings.ReplaceAll(name, "-", "_"),
		ImageName:  imageName(name),
		ModulePath: modulePath,
	}, nil
}

const fallbackName = "service"

func defaultModulePath(name string) string {
	path := strings.Trim(strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if isLowerAlnum(r) || r == '_' || r == '-' {
			return r
		}
		return '-'
	}, name), "-_")
	if path == "" {
		return fallbackName
	}
	// reserved Windows names such as "con" or "nul"
	if module.CheckImportPath(path) != nil {
		return path + "-" + fallbackName
	}
	return path
}

// imageName folds every run of characters outside [a-z0-9] into a single
// underscore, which always yields a valid image name component.
func imageName(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if !isLowerAlnum(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return fallbackName
	}
	return b.String()
}

func isLowerAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('0' <= r && r <= '9')
}
