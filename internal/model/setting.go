package model

// Setting 键值配置
type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(191)" json:"key"`
	Value string `gorm:"type:text;not null" json:"value"`
}

// TableName 指定表名
func (Setting) TableName() string {
	return "Settings"
}
