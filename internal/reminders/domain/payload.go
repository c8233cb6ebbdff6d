package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Payload carries the structured message data of a reminder task. The set of
// implementations is closed: one per task type, so the dispatcher consumes
// them without reflection.
type Payload interface {
	TaskType() TaskType
	// Message renders the notification text sent over the channel.
	Message() string
}

// PaymentReminderPayload is the payload of a payment_reminder task.
type PaymentReminderPayload struct {
	CustomerName string    `json:"customer_name"`
	CompanyName  string    `json:"company_name,omitempty"`
	ContractName string    `json:"contract_name"`
	DueDate      time.Time `json:"due_date"`
	Amount       int64     `json:"amount"`
	DaysBefore   int       `json:"days_before"`
}

// TaskType implements Payload.
func (p PaymentReminderPayload) TaskType() TaskType { return TypePaymentReminder }

// Message renders the payment reminder text.
func (p PaymentReminderPayload) Message() string {
	return "【繳費提醒】\n\n" +
		"親愛的 " + p.CustomerName + " 您好，\n\n" +
		possessive(p.CompanyName) +
		"租約繳費日即將到來。\n\n" +
		"📅 繳費日期：" + p.DueDate.Format("2006/01/02") + "\n" +
		"💰 應繳金額：NT$ " + formatAmount(p.Amount) + "\n\n" +
		"請於繳費日前完成繳款，如有任何問題歡迎與我們聯繫。\n\n" +
		"Hour Jungle 敬上"
}

// RenewalReminderPayload is the payload of a renewal_reminder task.
type RenewalReminderPayload struct {
	CustomerName string    `json:"customer_name"`
	CompanyName  string    `json:"company_name,omitempty"`
	ContractName string    `json:"contract_name"`
	EndDate      time.Time `json:"end_date"`
	DaysBefore   int       `json:"days_before"`
}

// TaskType implements Payload.
func (p RenewalReminderPayload) TaskType() TaskType { return TypeRenewalReminder }

// Message renders the renewal reminder text.
func (p RenewalReminderPayload) Message() string {
	return "【續約提醒】\n\n" +
		"親愛的 " + p.CustomerName + " 您好，\n\n" +
		possessive(p.CompanyName) +
		"租約即將到期。\n\n" +
		"📅 到期日期：" + p.EndDate.Format("2006/01/02") + "\n" +
		"⏰ 剩餘天數：" + strconv.Itoa(p.DaysBefore) + " 天\n\n" +
		"如需續約，請盡早與我們聯繫，以便為您保留位置。\n\n" +
		"Hour Jungle 敬上"
}

// possessive prefixes the contract reference with the company name for
// corporate customers and "您的" for individuals.
func possessive(companyName string) string {
	if companyName != "" {
		return "貴公司 " + companyName + " 的"
	}
	return "您的"
}

// formatAmount renders an NT$ amount with thousands separators.
func formatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	negative := false
	if len(s) > 0 && s[0] == '-' {
		negative = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if negative {
		return "-" + string(out)
	}
	return string(out)
}

// EncodePayload serializes a payload for persistence.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// DecodePayload deserializes a payload by task type. A missing payload
// decodes to nil.
func DecodePayload(taskType TaskType, raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch taskType {
	case TypePaymentReminder:
		var p PaymentReminderPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeRenewalReminder:
		var p RenewalReminderPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTaskType, taskType)
	}
}
