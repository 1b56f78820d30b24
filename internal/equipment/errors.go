package equipment

import "fmt"

func errUnknown(name string) error {
	return fmt.Errorf("unknown asset %q: %w", name, ErrInvalidAsset)
}

func errWrongType(name string, want AssetType) error {
	return fmt.Errorf("asset %q is not of type %s: %w", name, want, ErrInvalidAsset)
}
