package model

import "time"

// Subscriber はニュースレターの購読者を表す。
// Emailは正規化（前後の空白除去と小文字化）済みの値を保持し、一意である。
type Subscriber struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// SubscribeResult は購読登録の結果を表す。
// WelcomeEmailSentはウェルカムメールの送信に成功したかどうかを示す。
// 送信に失敗しても購読者は登録済みであり、Successはtrueのままとなる。
type SubscribeResult struct {
	Success          bool
	Subscriber       *Subscriber
	WelcomeEmailSent bool
}
