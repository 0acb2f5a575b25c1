// Package model はドメインモデルを定義する。
package model

import "time"

// Post は投稿を表す。
// 作成後に更新・削除されることはない。
type Post struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Greeting はhelloプロシージャの応答を表す。
type Greeting struct {
	Greeting string
}
