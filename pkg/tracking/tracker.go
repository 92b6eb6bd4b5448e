package tracking

import "strconv"

// Action names understood by the collector.
const (
	ActionLogin                 = "User::Login"
	ActionLogout                = "User::Logout"
	ActionSignup                = "User::Signup"
	ActionClick                 = "User::Click"
	ActionLevelup               = "User::Levelup"
	ActionProfile               = "User::Profile"
	ActionFeatureUsage          = "Feature::Usage"
	ActionInvitation            = "Virality::Invitation"
	ActionInvitationAcceptance  = "Virality::Invitation::Acceptance"
	ActionCurrencyPurchase      = "VirtualCurrencies::Buy"
	ActionCurrencyChargeback    = "VirtualCurrencies::Chargeback"
	actionItemPurchasePrefix    = "VirtualGoods::Item::Buy::"
	actionVirtualGoodsPrefix    = "VirtualGoods::"
	actionSeparator             = "::"
	profileGender               = "Gender"
	profileBirthyear            = "Birthyear"
	profileCustomClassification = "CustomStaticClassification"
)

// Tracker records analytics events for one space.
// Methods never block on delivery and never return errors; invalid input
// is dropped with a diagnostic.
type Tracker interface {
	// Track records a custom action with arbitrary fields.
	Track(action string, fields ...Field)

	TrackLogin()
	TrackLogout()
	TrackSignup(s Signup)
	TrackClick(c Click)
	// TrackLevelup ignores levels below 1.
	TrackLevelup(level int)
	// TrackUserGender accepts "female" or "male" and ignores anything else.
	TrackUserGender(gender string)
	TrackUserBirthyear(year int)
	TrackUserCustomStaticClassification(classification string)
	TrackFeatureUsage(u FeatureUsage)
	TrackViralityInvitation(inviteType, messageToken string, quantity int)
	TrackViralityInviteAcceptance(inviteType, messageToken, sourceCustomerID string)
	TrackVirtualCurrencyPurchase(t CurrencyTransaction)
	TrackVirtualCurrencyChargeback(t CurrencyTransaction)
	TrackVirtualGoodsItemPurchase(p ItemPurchase)
	TrackVirtualGoodsFeaturePurchase(p FeaturePurchase)
}

// Signup describes a user registration and the marketing source behind it.
type Signup struct {
	// ClickToken links the signup to an earlier TrackClick; omitted when empty.
	ClickToken          string
	MarketingIdentifier string
	PartnerName         string
	CampaignName        string
	AdName              string
	Keyword             string
	LandingPage         string
}

// Click describes a click on an ad before the user has an identifier.
type Click struct {
	ClickToken          string
	MarketingIdentifier string
	LandingPageID       string
}

// FeatureUsage describes the use of a game feature.
type FeatureUsage struct {
	FeatureType       string
	FeatureSubType    string
	FeatureSubSubType string
	GameCurrency      GameCurrency
	Quantity          int
}

// CurrencyTransaction describes a real-money purchase of virtual currency,
// or its chargeback. Amounts are always positive.
type CurrencyTransaction struct {
	VirtualCurrencyAmount float64
	// VirtualCurrencyName is omitted when empty.
	VirtualCurrencyName string
	PaymentType         string
	Revenue             float64
	// RevenueCurrency is an ISO 4217 code.
	RevenueCurrency string
	Payout          float64
	// PayoutCurrency is an ISO 4217 code.
	PayoutCurrency string
}

// ItemPurchase describes spending virtual currency on an item.
type ItemPurchase struct {
	ItemType              string
	Item                  *Item
	VirtualCurrencyAmount float64
	VirtualCurrencyName   string
	GameCurrency          GameCurrency
	Quantity              int
	IsFreeAction          bool
}

// FeaturePurchase describes spending virtual currency on a feature.
type FeaturePurchase struct {
	FeatureType           string
	FeatureSubType        string
	VirtualCurrencyAmount float64
	VirtualCurrencyName   string
	GameCurrency          GameCurrency
	Quantity              int
	IsFreeAction          bool
}

// Item is a purchasable virtual good.
type Item struct {
	UniqueID string
	Name     string
	ImageURL string
}

// JSON renders the item as {"UniqueId":..,"ImageUrl":..,"Name":..}.
func (i *Item) JSON() string {
	if i == nil {
		return ""
	}
	b, _ := Fields{
		{Key: "UniqueId", Value: i.UniqueID},
		{Key: "ImageUrl", Value: i.ImageURL},
		{Key: "Name", Value: i.Name},
	}.MarshalJSON()
	return string(b)
}

// GameCurrency lists in-game resources spent or earned, in order.
type GameCurrency Fields

// Add appends a resource amount and returns the extended list.
func (g GameCurrency) Add(resource, value string) GameCurrency {
	return append(g, Field{Key: resource, Value: value})
}

// JSON renders the list as a flat JSON object.
func (g GameCurrency) JSON() string {
	b, _ := Fields(g).MarshalJSON()
	return string(b)
}

// recorder turns a built event into a backlog entry.
type recorder interface {
	record(s Settings, e Event)
}

// tracker implements Tracker for one space.
type tracker struct {
	settings Settings
	rec      recorder
}

func (t *tracker) add(action string, fields ...Field) {
	t.rec.record(t.settings, NewEvent(action, fields...))
}

func (t *tracker) Track(action string, fields ...Field) {
	t.add(action, fields...)
}

func (t *tracker) TrackLogin() {
	t.add(ActionLogin)
}

func (t *tracker) TrackLogout() {
	t.add(ActionLogout)
}

func (t *tracker) TrackSignup(s Signup) {
	fields := make([]Field, 0, 7)
	if s.ClickToken != "" {
		fields = append(fields, F("UniqueCustomerClickToken", s.ClickToken))
	}
	fields = append(fields,
		F("MarketingIdentifier", s.MarketingIdentifier),
		F("PartnerName", s.PartnerName),
		F("CampaignName", s.CampaignName),
		F("AdName", s.AdName),
		F("Keyword", s.Keyword),
		F("LandingPage", s.LandingPage),
	)
	t.add(ActionSignup, fields...)
}

func (t *tracker) TrackClick(c Click) {
	t.add(ActionClick,
		F("UniqueCustomerClickToken", c.ClickToken),
		F("MarketingIdentifier", c.MarketingIdentifier),
		F("LandingPageId", c.LandingPageID),
	)
}

func (t *tracker) TrackLevelup(level int) {
	if level < 1 {
		return
	}
	t.add(ActionLevelup, F("Level", strconv.Itoa(level)))
}

func (t *tracker) TrackUserGender(gender string) {
	if gender != "female" && gender != "male" {
		return
	}
	t.profile(profileGender, gender)
}

func (t *tracker) TrackUserBirthyear(year int) {
	t.profile(profileBirthyear, strconv.Itoa(year))
}

func (t *tracker) TrackUserCustomStaticClassification(classification string) {
	t.profile(profileCustomClassification, classification)
}

func (t *tracker) profile(kind, value string) {
	t.add(ActionProfile, F("Type", kind), F("Value", value))
}

func (t *tracker) TrackFeatureUsage(u FeatureUsage) {
	t.add(ActionFeatureUsage,
		F("FeatureType", u.FeatureType),
		F("FeatureSubType", u.FeatureSubType),
		F("FeatureSubSubType", u.FeatureSubSubType),
		F("GameCurrency", u.GameCurrency.JSON()),
		F("Quantity", strconv.Itoa(u.Quantity)),
	)
}

func (t *tracker) TrackViralityInvitation(inviteType, messageToken string, quantity int) {
	t.add(ActionInvitation,
		F("InviteType", inviteType),
		F("InviteMessageToken", messageToken),
		F("Quantity", strconv.Itoa(quantity)),
	)
}

func (t *tracker) TrackViralityInviteAcceptance(inviteType, messageToken, sourceCustomerID string) {
	t.add(ActionInvitationAcceptance,
		F("InviteType", inviteType),
		F("InviteMessageToken", messageToken),
		F("SourceUniqueCustomerIdentifier", sourceCustomerID),
	)
}

func (t *tracker) TrackVirtualCurrencyPurchase(tx CurrencyTransaction) {
	t.add(ActionCurrencyPurchase, tx.fields()...)
}

func (t *tracker) TrackVirtualCurrencyChargeback(tx CurrencyTransaction) {
	t.add(ActionCurrencyChargeback, tx.fields()...)
}

func (tx CurrencyTransaction) fields() []Field {
	fields := make([]Field, 0, 7)
	fields = append(fields, F("VirtualCurrencyAmount", formatFloat(tx.VirtualCurrencyAmount)))
	if tx.VirtualCurrencyName != "" {
		fields = append(fields, F("VirtualCurrencyName", tx.VirtualCurrencyName))
	}
	return append(fields,
		F("PaymentType", tx.PaymentType),
		F("Revenue", formatFloat(tx.Revenue)),
		F("RevenueCurrency", tx.RevenueCurrency),
		F("Payout", formatFloat(tx.Payout)),
		F("PayoutCurrency", tx.PayoutCurrency),
	)
}

func (t *tracker) TrackVirtualGoodsItemPurchase(p ItemPurchase) {
	fields := make([]Field, 0, 7)
	fields = append(fields,
		F("ItemType", p.ItemType),
		F("Item", p.Item.JSON()),
		F("VirtualCurrencyAmount", formatFloat(p.VirtualCurrencyAmount)),
	)
	if p.VirtualCurrencyName != "" {
		fields = append(fields, F("VirtualCurrencyName", p.VirtualCurrencyName))
	}
	fields = append(fields,
		F("GameCurrency", p.GameCurrency.JSON()),
		F("Quantity", strconv.Itoa(p.Quantity)),
		F("IsFreeAction", strconv.FormatBool(p.IsFreeAction)),
	)
	t.add(actionItemPurchasePrefix+p.ItemType, fields...)
}

func (t *tracker) TrackVirtualGoodsFeaturePurchase(p FeaturePurchase) {
	fields := make([]Field, 0, 7)
	fields = append(fields,
		F("FeatureType", p.FeatureType),
		F("FeatureSubType", p.FeatureSubType),
		F("Value", formatFloat(p.VirtualCurrencyAmount)),
	)
	if p.VirtualCurrencyName != "" {
		fields = append(fields, F("VirtualCurrencyName", p.VirtualCurrencyName))
	}
	fields = append(fields,
		F("GameCurrency", p.GameCurrency.JSON()),
		F("Quantity", strconv.Itoa(p.Quantity)),
		F("IsFreeAction", strconv.FormatBool(p.IsFreeAction)),
	)
	t.add(actionVirtualGoodsPrefix+p.FeatureType+actionSeparator+p.FeatureSubType, fields...)
}

// formatFloat renders v without exponent or locale-specific separators.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// nopTracker discards everything. It is returned while tracking is disabled.
type nopTracker struct{}

// Nop returns a Tracker that records nothing.
func Nop() Tracker { return nopTracker{} }

func (nopTracker) Track(string, ...Field)                               {}
func (nopTracker) TrackLogin()                                          {}
func (nopTracker) TrackLogout()                                         {}
func (nopTracker) TrackSignup(Signup)                                   {}
func (nopTracker) TrackClick(Click)                                     {}
func (nopTracker) TrackLevelup(int)                                     {}
func (nopTracker) TrackUserGender(string)                               {}
func (nopTracker) TrackUserBirthyear(int)                               {}
func (nopTracker) TrackUserCustomStaticClassification(string)           {}
func (nopTracker) TrackFeatureUsage(FeatureUsage)                       {}
func (nopTracker) TrackViralityInvitation(string, string, int)          {}
func (nopTracker) TrackViralityInviteAcceptance(string, string, string) {}
func (nopTracker) TrackVirtualCurrencyPurchase(CurrencyTransaction)     {}
func (nopTracker) TrackVirtualCurrencyChargeback(CurrencyTransaction)   {}
func (nopTracker) TrackVirtualGoodsItemPurchase(ItemPurchase)           {}
func (nopTracker) TrackVirtualGoodsFeaturePurchase(FeaturePurchase)     {}
