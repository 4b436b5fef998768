package rules

import "sync"

// DefaultRules returns the built-in subtype rules. Order matters: findings
// are grouped by rule in this order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Subtype:  SubtypePhone,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"điện thoại", "dien thoai", "đt", "dt", "sdt", "số dt", "so dt", "phone", "tel", "telephone",
				"mobile", "mobifone", "liên hệ", "lien he", "liên lạc", "lien lac", "hotline", "contact number",
			},
			Pattern: `(?:\+?84[\s\-\.]?)?0?(3[2-9]|5[689]|7[06-9]|8[1-689]|9[0-46-9])([\s\-\.]?\d){7,8}\b`,
		},
		{
			Subtype:  SubtypeIDCard,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"chứng minh nhân dân", "chung minh nhan dan", "cmnd", "id card", "cmt", "cmnd/cccd",
				"giấy cmnd", "giay cmnd", "số cmnd", "so cmnd", "identity card",
			},
			Pattern: `\b(\d[\s\-\.]?){9}\b`,
		},
		{
			Subtype:  SubtypePersonalID,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"căn cước công dân", "can cuoc cong dan", "cccd", "cccd/cc", "id ca nhan",
				"personal id", "citizen id", "mã định danh", "ma dinh danh", "căn cước", "can cuoc",
				"số cccd", "so cccd", "giấy cccd", "giay cccd",
			},
			Pattern: `\b(\d[\s\-\.]?){12}\b`,
		},
		{
			Subtype:  SubtypePassport,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"hộ chiếu", "ho chieu", "passport", "pp", "passport number", "so ho chieu", "số hộ chiếu",
				"giấy hộ chiếu", "giay ho chieu",
			},
			Pattern: `\b([A-Z]{1,2}[\s\-\.]?(\d[\s\-\.]?){7})\b`,
		},
		{
			Subtype:  SubtypeDriverLicense,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"giấy phép lái xe", "giay phep lai xe", "gplx", "driver license", "driving license", "bằng lái xe",
				"bang lai xe", "bang lai", "số gplx", "so gplx", "bằng lái", "giấy lái xe", "giay lai xe",
			},
			Pattern: `\b(\d[\s\-\.]?){12}\b`,
		},
		{
			Subtype:  SubtypeLicensePlate,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"biển số xe", "bien so xe", "bienso", "license plate", "plate number", "bks",
				"biển kiểm soát", "bien kiem soat", "số xe", "so xe", "biển số", "bien so",
			},
			Pattern: `\b\d{2}[A-Z]{1,2}[\s\-\.]?\d{4,5}\b`,
		},
		{
			Subtype:  SubtypeTaxIDPersonal,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"mã số thuế cá nhân", "ma so thue ca nhan", "mst cá nhân", "mst ca nhan", "tax id",
				"tax code", "mã số thuế", "ma so thue", "mst", "số mst", "so mst", "số thuế", "so thue",
			},
			Pattern: `\b(\d[\s\-\.]?){10}(([\s\-\.]?\d){3})?\b`,
		},
		{
			Subtype:  SubtypeSocialInsurance,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"bảo hiểm xã hội", "bao hiem xa hoi", "bhxh", "social insurance", "số bhxh", "so bhxh",
				"mã bhxh", "ma bhxh",
			},
			Pattern: `\b(\d[\s\-\.]?){10}\b`,
		},
		{
			Subtype:  SubtypeHealthInsurance,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"bảo hiểm y tế", "bao hiem y te", "bhyt", "health insurance", "thẻ bhyt", "the bhyt",
				"số thẻ bảo hiểm", "so the bao hiem", "số bhyt", "so bhyt", "mã bhyt", "ma bhyt",
			},
			Pattern: `\b[A-Z]{2}([\s\-\.]?\d){13}\b`,
		},
		{
			Subtype:  SubtypeTaxIDOrg,
			Category: CategoryIdentifiable,
			Keywords: []string{
				"mã số thuế", "ma so thue", "mst tổ chức", "mst to chuc", "tax id org", "tax code org",
				"mã số thuế doanh nghiệp", "ma so thue doanh nghiep", "mã số thuế cty", "ma so thue cty",
			},
			Pattern: `\b\d{10}-\d{3}\b`,
		},
		{
			Subtype:  SubtypeBankAccount,
			Category: CategoryInternal,
			Keywords: []string{
				"số tài khoản", "so tai khoan", "stk", "bank account", "tài khoản ngân hàng", "tai khoan ngan hang",
				"account number", "số tk", "so tk", "tk ngân hàng", "tk ngan hang", "số tài khoản ngân hàng", "so tai khoan ngan hang",
			},
			Pattern: `\b(\d[\s\-\.]?){8,16}\b`,
		},
		{
			Subtype:  SubtypeCardNumber,
			Category: CategoryInternal,
			Keywords: []string{
				"số thẻ", "so the", "card number", "credit card", "debit card", "số thẻ tín dụng",
				"so the tin dung", "số thẻ ngân hàng", "so the ngan hang", "card", "thẻ ngân hàng", "the ngan hang",
			},
			Pattern: `\b(\d[\s\-\.]?){16}\b`,
		},
		{
			Subtype:  SubtypeSalary,
			Category: CategoryInternal,
			Keywords: []string{
				"lương", "luong", "bảng lương", "bang luong", "salary", "thưởng", "thuong", "bonus",
				"thông tin lương thưởng", "thong tin luong thuong", "phiếu lương", "phieu luong", "bảng thưởng", "bang thuong",
				"bảng lương thưởng", "bang luong thuong", "quyết toán lương", "quyet toan luong", "salary slip", "salary report",
			},
		},
		{
			Subtype:  SubtypeSecretKey,
			Category: CategoryInternal,
			Keywords: []string{
				"secret key", "api key", "access token", "session token", "token", "client secret", "private key",
				"api_token", "api-key", "client_secret", "client-key", "consumer key", "jwt", "oauth token", "oauth",
				"authorization code", "refresh token",
			},
		},
		{
			Subtype:  SubtypePassword,
			Category: CategoryInternal,
			Keywords: []string{
				"mật khẩu", "mat khau", "password", "pass", "pwd", "mã khóa bí mật", "ma khoa bi mat",
				"login password", "user password", "admin password", "admin pass", "root password", "passcode",
			},
		},
	}
}

// DefaultBroadTypes returns the built-in broad taxonomy: nine personal
// sensitive kinds (Decree 13/2023/NĐ-CP) and two internal sensitive kinds.
func DefaultBroadTypes() []BroadDataType {
	personal := []BroadCategory{BroadPersonalSensitive}
	internal := []BroadCategory{BroadInternalSensitive}

	return []BroadDataType{
		{
			Name:        "Quan điểm chính trị, tôn giáo",
			Categories:  personal,
			Keywords:    []string{"chính trị", "tôn giáo", "đảng", "tín ngưỡng", "phật giáo", "công giáo", "hồi giáo", "quan điểm chính trị"},
			Description: "STT 1: Quan điểm chính trị, quan điểm tôn giáo",
		},
		{
			Name:        "Thông tin sức khỏe và bệnh án",
			Categories:  personal,
			Keywords:    []string{"bệnh án", "sức khỏe", "bệnh viện", "khám bệnh", "điều trị", "thuốc", "bệnh tật", "y tế", "bác sĩ"},
			Patterns:    []string{`\b(bệnh án|hồ sơ bệnh án|tình trạng sức khỏe)\b`},
			Description: "STT 2: Tình trạng sức khỏe và đời tư trong hồ sơ bệnh án",
		},
		{
			Name:        "Nguồn gốc chủng tộc, dân tộc",
			Categories:  personal,
			Keywords:    []string{"chủng tộc", "dân tộc", "kinh", "tày", "thái", "mường", "khmer", "hoa", "nùng", "hmông"},
			Patterns:    []string{`\b(dân tộc|chủng tộc|nguồn gốc)\s*(kinh|tày|thái|mường|khmer|hoa|nùng|hmông)\b`},
			Description: "STT 3: Thông tin liên quan đến nguồn gốc chủng tộc, dân tộc",
		},
		{
			Name:        "Đặc điểm di truyền",
			Categories:  personal,
			Keywords:    []string{"di truyền", "gen", "adn", "dna", "nhiễm sắc thể", "gen di truyền", "đặc điểm di truyền"},
			Patterns:    []string{`\b(gen|dna|adn|di truyền|nhiễm sắc thể)\b`},
			Description: "STT 4: Thông tin về đặc điểm di truyền",
		},
		{
			Name:        "Thuộc tính vật lý, sinh học",
			Categories:  personal,
			Keywords:    []string{"vân tay", "võng mạc", "khuôn mặt", "giọng nói", "sinh trắc học", "nhận dạng sinh học"},
			Patterns:    []string{`\b(vân tay|võng mạc|sinh trắc|nhận dạng sinh học)\b`},
			Description: "STT 5: Thông tin về thuộc tính vật lý, đặc điểm sinh học",
		},
		{
			Name:        "Đời sống tình dục",
			Categories:  personal,
			Keywords:    []string{"tình dục", "xu hướng tình dục", "giới tính", "lgbt", "đồng tính", "dị tính"},
			Patterns:    []string{`\b(xu hướng tình dục|đời sống tình dục)\b`},
			Description: "STT 6: Thông tin về đời sống tình dục, xu hướng tình dục",
		},
		{
			Name:        "Dữ liệu tội phạm",
			Categories:  personal,
			Keywords:    []string{"tội phạm", "phạm tội", "án tù", "tiền án", "tiền sự", "vi phạm pháp luật"},
			Patterns:    []string{`\b(tội phạm|phạm tội|tiền án|tiền sự)\b`},
			Description: "STT 7: Dữ liệu về tội phạm, hành vi phạm tội",
		},
		{
			Name:        "Thông tin ngân hàng khách hàng",
			Categories:  personal,
			Keywords:    []string{"tài khoản ngân hàng", "tiền gửi", "giao dịch ngân hàng", "bảo đảm ngân hàng", "tín dụng"},
			Patterns:    []string{`\b(tài khoản|tiền gửi|giao dịch|tín dụng)\s*(ngân hàng|bank)\b`},
			Description: "STT 8: Thông tin khách hàng tổ chức tín dụng",
		},
		{
			Name:        "Dữ liệu vị trí",
			Categories:  personal,
			Keywords:    []string{"vị trí", "định vị", "gps", "tọa độ", "địa điểm", "location"},
			Patterns:    []string{`\b(gps|định vị|tọa độ|location)\b`, `\d+\.\d+,\s*\d+\.\d+`},
			Description: "STT 9: Dữ liệu về vị trí cá nhân qua dịch vụ định vị",
		},
		{
			Name:       "Secret Keys và Tokens",
			Categories: internal,
			Keywords:   []string{"secret key", "api key", "access token", "session token", "private key", "auth token"},
			Patterns: []string{
				`\b(secret[_\s]?key|api[_\s]?key|access[_\s]?token|session[_\s]?token)\b`,
				`sk-[a-zA-Z0-9]{48}`,
				`Bearer\s+[a-zA-Z0-9\-_=]+`,
				`[a-zA-Z0-9]{32,}`,
			},
			Description: "STT 10: Secret Key, API Key, Access Token, session token",
		},
		{
			Name:        "Mật khẩu người dùng",
			Categories:  internal,
			Keywords:    []string{"password", "mật khẩu", "pass", "pwd", "secret"},
			Patterns:    []string{`\b(password|mật khẩu|pass|pwd)\s*[:=]\s*\S+`},
			Description: "STT 11: Mã khóa bí mật người dùng (Password)",
		},
	}
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the process-wide table built from the built-in entries. It
// is built on first use and shared read-only afterwards.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = MustBuild(NewDefaultBuilder())
	})
	return defaultTable
}

// NewDefaultBuilder returns a builder preloaded with the built-in entries so
// callers can append rule packs before building.
func NewDefaultBuilder() *Builder {
	b := NewBuilder()
	for _, r := range DefaultRules() {
		b.AddRule(r)
	}
	for _, t := range DefaultBroadTypes() {
		b.AddBroadType(t)
	}
	return b
}

// MustBuild builds b and panics on invalid entries.
func MustBuild(b *Builder) *Table {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
