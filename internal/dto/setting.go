package dto

// SMTPSettings SMTP 发信配置
type SMTPSettings struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	User   string `json:"user"`
	Pass   string `json:"pass"`
	Secure bool   `json:"secure"`
}

// EmailSettings 邮件通知配置
type EmailSettings struct {
	GlobalEnabled bool         `json:"globalEnabled"`
	SMTP          SMTPSettings `json:"smtp"`
}

// SMTPSettingsUpdate 部分更新 SMTP 配置，nil 表示不修改
type SMTPSettingsUpdate struct {
	Host   *string `json:"host"`
	Port   *int    `json:"port" binding:"omitempty,min=1,max=65535"`
	User   *string `json:"user"`
	Pass   *string `json:"pass"`
	Secure *bool   `json:"secure"`
}

// EmailSettingsUpdate 部分更新邮件通知配置
type EmailSettingsUpdate struct {
	GlobalEnabled *bool               `json:"globalEnabled"`
	SMTP          *SMTPSettingsUpdate `json:"smtp"`
}

// CommentSettings 评论展示配置
type CommentSettings struct {
	AdminEmail   string `json:"adminEmail"`
	AvatarPrefix string `json:"avatarPrefix"`
	NotifyEmail  string `json:"notifyEmail"`
}

// CommentSettingsUpdate 部分更新评论展示配置
type CommentSettingsUpdate struct {
	AdminEmail   *string `json:"adminEmail"`
	AvatarPrefix *string `json:"avatarPrefix"`
	NotifyEmail  *string `json:"notifyEmail"`
}

// S3Settings S3 备份配置，读取时密钥会被遮盖
type S3Settings struct {
	Endpoint        string `json:"endpoint"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// S3SettingsUpdate 部分更新 S3 配置
type S3SettingsUpdate struct {
	Endpoint        *string `json:"endpoint"`
	Bucket          *string `json:"bucket"`
	Region          *string `json:"region"`
	AccessKeyID     *string `json:"accessKeyId"`
	SecretAccessKey *string `json:"secretAccessKey"`
}
