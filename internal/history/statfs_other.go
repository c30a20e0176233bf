//go:build !darwin && !linux

package history

func filesystemType(string) (string, error) {
	return "", errUnsupported
}
