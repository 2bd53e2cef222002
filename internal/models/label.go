package models

// Label is a provider label as last listed after authentication
type Label struct {
	ID   string `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

// TableName specifies the table name for GORM
func (Label) TableName() string {
	return "labels"
}
