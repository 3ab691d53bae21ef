package model

import "time"

// Client はユーザーが所有する顧客レコードを表す。
// UserIDは所有者で、必ず1人のユーザーに属する。
type Client struct {
	ID        string
	Name      string
	Email     *string
	Phone     *string
	Notes     *string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientInput は顧客作成時の入力値。所有者は含まない。
type ClientInput struct {
	Name  string
	Email *string
	Phone *string
	Notes *string
}

// ClientPatch は顧客の部分更新を表す。nilのフィールドは変更しない。
// 任意項目（Email, Phone, Notes）に空文字を指定した場合は値を消去する。
type ClientPatch struct {
	Name  *string
	Email *string
	Phone *string
	Notes *string
}

// Apply はパッチの非nilフィールドのみを顧客に反映する。
func (p ClientPatch) Apply(c *Client) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = emptyToNil(p.Email)
	}
	if p.Phone != nil {
		c.Phone = emptyToNil(p.Phone)
	}
	if p.Notes != nil {
		c.Notes = emptyToNil(p.Notes)
	}
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

// ClientPage は顧客一覧の1ページ分の結果。
// Totalは検索条件に一致する全件数で、ページ範囲外でも0にはならない。
type ClientPage struct {
	Clients  []*Client
	Total    int
	Page     int
	PageSize int
}
