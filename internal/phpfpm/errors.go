package phpfpm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigDirectoryNotFound is matched by *ConfigDirectoryNotFoundError.
	ErrConfigDirectoryNotFound = errors.New("unable to determine PHP-FPM configuration folder")

	// ErrServiceNotFound is matched by *ServiceNotFoundError.
	ErrServiceNotFound = errors.New("unable to determine PHP service name")
)

// ConfigDirectoryNotFoundError is returned when none of the candidate pool
// directories exist on the host.
type ConfigDirectoryNotFoundError struct {
	Candidates []string
}

func (e *ConfigDirectoryNotFoundError) Error() string {
	return fmt.Sprintf("%v (tried %s)", ErrConfigDirectoryNotFound, strings.Join(e.Candidates, ", "))
}

func (e *ConfigDirectoryNotFoundError) Is(target error) bool {
	return target == ErrConfigDirectoryNotFound
}

// ServiceNotFoundError is returned when the init system reports the
// versioned php-fpm unit as missing.
type ServiceNotFoundError struct {
	Name string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("%v: service %q not found", ErrServiceNotFound, e.Name)
}

func (e *ServiceNotFoundError) Is(target error) bool {
	return target == ErrServiceNotFound
}
