package enums

import "fmt"

// MediaKind categorizes the uploads the platform accepts.
type MediaKind string

const (
	MediaKindPropertyImage MediaKind = "property_image"
	MediaKindPropertyVideo MediaKind = "property_video"
	MediaKindUserAvatar    MediaKind = "user_avatar"
)

var validMediaKinds = []MediaKind{
	MediaKindPropertyImage,
	MediaKindPropertyVideo,
	MediaKindUserAvatar,
}

// String implements fmt.Stringer.
func (m MediaKind) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MediaKind.
func (m MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMediaKind converts raw input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	for _, candidate := range validMediaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}

// MediaStatus tracks whether a presigned upload has been completed.
type MediaStatus string

const (
	MediaStatusPending  MediaStatus = "pending"
	MediaStatusUploaded MediaStatus = "uploaded"
)

// IsValid reports whether the value is a known MediaStatus.
func (m MediaStatus) IsValid() bool {
	return m == MediaStatusPending || m == MediaStatusUploaded
}

// String implements fmt.Stringer.
func (m MediaStatus) String() string {
	return string(m)
}
