package library

import (
	"time"

	"gorm.io/datatypes"
)

// ClipRecord is one stored clip. Tracks are kept as a JSON array of trackRecord.
type ClipRecord struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Name       string         `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Duration   float64        `json:"duration"`
	BlendMode  string         `gorm:"size:16" json:"blendMode"`
	TrackCount int            `json:"trackCount"`
	Tracks     datatypes.JSON `json:"tracks"`
}

// TableName sets the table name of ClipRecord.
func (*ClipRecord) TableName() string {
	return "clips"
}

// trackRecord is the JSON form of one track.
type trackRecord struct {
	Name          string    `json:"name"`
	ValueType     string    `json:"valueType"`
	Interpolation string    `json:"interpolation"`
	Times         []float64 `json:"times"`
	Values        []float64 `json:"values,omitempty"`
	Strings       []string  `json:"strings,omitempty"`
}

// DatabaseModels lists the models migrated when a library is opened.
var DatabaseModels = []interface{}{
	&ClipRecord{},
}
