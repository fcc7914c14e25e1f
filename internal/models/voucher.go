// Package models содержит доменные структуры ваучеров и событий,
// которыми обмениваются агент сбора, HTTP-слой и внешние получатели.
package models

import "time"

// Voucher промокод партнёрского сайта с метаданными направления.
// Code остаётся скрытым, пока IsHidden равен true.
type Voucher struct {
	ID          string    `json:"id"`
	Code        string    `json:"code,omitempty"`
	Destination string    `json:"destination"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	ExpiryDate  time.Time `json:"expiryDate"`
	IsHidden    bool      `json:"isHidden"`
}

// Expired сообщает, истёк ли ваучер к моменту now.
func (v Voucher) Expired(now time.Time) bool {
	return v.ExpiryDate.Before(now)
}

// Public возвращает копию без кода, если ваучер скрыт.
func (v Voucher) Public() Voucher {
	if v.IsHidden {
		v.Code = ""
	}
	return v
}

// VouchersUpdated событие о завершении цикла сбора. Коды в событие не попадают.
type VouchersUpdated struct {
	Count int       `json:"count"`
	IDs   []string  `json:"ids"`
	At    time.Time `json:"at"`
}

// RevealRequest тело запроса на раскрытие кода.
type RevealRequest struct {
	UserID string `json:"userId" validate:"omitempty,max=2048"`
}

// RevealResponse ответ с раскрытым кодом.
type RevealResponse struct {
	Code string `json:"code"`
}
