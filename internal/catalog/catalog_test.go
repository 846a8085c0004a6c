package catalog

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/revittco/storeadmin/internal/validate"
	"github.com/shopspring/decimal"
)

func validProductDraft() ProductDraft {
	return ProductDraft{
		Title:       "Fjallraven Backpack",
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("109.95")),
		Description: "Your perfect pack for everyday use (and walks in the forest).",
		Image:       "https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg",
		Category:    "men's clothing",
	}
}

func validUserDraft() UserDraft {
	return UserDraft{
		Name:     Name{Firstname: "John", Lastname: "Doe"},
		Username: "johnd",
		Email:    "john@gmail.com",
		Phone:    "1-570-236-7033",
		Address:  Address{City: "kilcoole", Street: "new road", Zipcode: "12926-3874"},
	}
}

func fieldErrors(t *testing.T, err error) *validate.Errors {
	t.Helper()
	var verrs *validate.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *validate.Errors, got %v", err)
	}
	return verrs
}

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{in: `7`, want: 7},
		{in: `"21"`, want: 21},
		{in: `null`, want: 0},
		{in: `""`, want: 0},
	}
	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if id != tt.want {
			t.Fatalf("Unmarshal(%s) = %d, want %d", tt.in, id, tt.want)
		}
	}

	var id ID
	if err := json.Unmarshal([]byte(`"abc"`), &id); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("12"); err != nil || id != 12 {
		t.Fatalf("ParseID(12) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "x"} {
		if _, err := ParseID(bad); err == nil {
			t.Fatalf("ParseID(%q) expected error", bad)
		}
	}
}

func TestProductJSON(t *testing.T) {
	var p Product
	body := `{"id":"3","title":"Jacket","price":55.99,"description":"d","image":"https://x/y.jpg","category":"c","rating":{"rate":4.7,"count":500}}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != 3 || p.EntityID() != 3 {
		t.Fatalf("id = %d", p.ID)
	}
	if !p.Price.Equal(decimal.RequireFromString("55.99")) {
		t.Fatalf("price = %s", p.Price)
	}

	out, err := json.Marshal(DraftFromProduct(p))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"price":55.99`) {
		t.Fatalf("price should encode as a JSON number: %s", out)
	}

	out, err = json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal product: %v", err)
	}
	if !strings.Contains(string(out), `"price":55.99`) || !strings.Contains(string(out), `"rating":{"rate":4.7,"count":500}`) {
		t.Fatalf("product = %s", out)
	}
	if strings.Count(string(out), `"price"`) != 1 {
		t.Fatalf("price written twice: %s", out)
	}
}

func TestPriceEncodingIsLocal(t *testing.T) {
	// Plain decimals elsewhere keep the library's quoted form.
	if decimal.MarshalJSONWithoutQuotes {
		t.Fatal("decimal.MarshalJSONWithoutQuotes was changed globally")
	}
	out, err := json.Marshal(decimal.RequireFromString("1.50"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"1.5"` {
		t.Fatalf("plain decimal = %s, want quoted", out)
	}

	out, err = json.Marshal(ProductDraft{Title: "Lamp"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"price":null`) {
		t.Fatalf("unset price = %s, want null", out)
	}

	out, err = json.Marshal([]Product{{ID: 1, Price: decimal.RequireFromString("12.50")}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"price":12.5`) {
		t.Fatalf("products = %s", out)
	}
}

func TestProductDraftValidate(t *testing.T) {
	if err := validProductDraft().Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ProductDraft)
		field  string
		msg    string
	}{
		{name: "missing title", mutate: func(d *ProductDraft) { d.Title = "" }, field: "title", msg: "Title is required"},
		{name: "title symbols", mutate: func(d *ProductDraft) { d.Title = "Bag!" }, field: "title"},
		{name: "missing price", mutate: func(d *ProductDraft) { d.Price = decimal.NullDecimal{} }, field: "price", msg: "Price is required"},
		{name: "negative price", mutate: func(d *ProductDraft) { d.Price = decimal.NewNullDecimal(decimal.NewFromInt(-1)) }, field: "price"},
		{name: "fractional cents", mutate: func(d *ProductDraft) { d.Price = decimal.NewNullDecimal(decimal.RequireFromString("1.001")) }, field: "price"},
		{name: "image not url", mutate: func(d *ProductDraft) { d.Image = "picture.jpg" }, field: "image", msg: "Image must be a valid URL"},
		{name: "image wrong ext", mutate: func(d *ProductDraft) { d.Image = "https://x.io/a.webp" }, field: "image"},
		{name: "category symbols", mutate: func(d *ProductDraft) { d.Category = "a&b" }, field: "category"},
		{name: "description blank", mutate: func(d *ProductDraft) { d.Description = " " }, field: "description", msg: "Description is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validProductDraft()
			tt.mutate(&d)
			verrs := fieldErrors(t, d.Validate())
			if !verrs.Has(tt.field) {
				t.Fatalf("expected %s to fail, got %v", tt.field, verrs.Fields)
			}
			if tt.msg != "" && verrs.Message(tt.field) != tt.msg {
				t.Fatalf("message = %q, want %q", verrs.Message(tt.field), tt.msg)
			}
		})
	}
}

func TestCartDraftValidate(t *testing.T) {
	d := CartDraft{UserID: 1, Date: "2020-03-02", Products: []CartLine{{ProductID: 1, Quantity: 4}}}
	if err := d.Validate(); err != nil {
		t.Fatalf("valid cart rejected: %v", err)
	}
	d.Date = "2020-03-02T00:00:00.000Z"
	if err := d.Validate(); err != nil {
		t.Fatalf("rfc3339 date rejected: %v", err)
	}

	bad := CartDraft{Date: "March 2", Products: []CartLine{{ProductID: 0, Quantity: 0}}}
	verrs := fieldErrors(t, bad.Validate())
	for _, f := range []string{"userId", "date", "products[0].productId", "products[0].quantity"} {
		if !verrs.Has(f) {
			t.Fatalf("expected %s to fail, got %v", f, verrs.Fields)
		}
	}

	blank := CartDraft{UserID: 2}
	if got := fieldErrors(t, blank.Validate()).Message("date"); got != "Date is required" {
		t.Fatalf("date message = %q", got)
	}
}

func TestDraftFromCartCopiesLines(t *testing.T) {
	c := Cart{ID: 1, UserID: 2, Date: "2020-01-01", Products: []CartLine{{ProductID: 5, Quantity: 1}}}
	d := DraftFromCart(c)
	d.Products[0].Quantity = 9
	if c.Products[0].Quantity != 1 {
		t.Fatal("draft shares line storage with the cart")
	}
}

func TestUserDraftValidate(t *testing.T) {
	if err := validUserDraft().Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*UserDraft)
		field  string
	}{
		{name: "digit in first name", mutate: func(d *UserDraft) { d.Name.Firstname = "J0hn" }, field: "firstname"},
		{name: "last name blank", mutate: func(d *UserDraft) { d.Name.Lastname = "" }, field: "lastname"},
		{name: "username dash", mutate: func(d *UserDraft) { d.Username = "john-d" }, field: "username"},
		{name: "email", mutate: func(d *UserDraft) { d.Email = "john@" }, field: "email"},
		{name: "short phone", mutate: func(d *UserDraft) { d.Phone = "12345" }, field: "phone"},
		{name: "city digits", mutate: func(d *UserDraft) { d.Address.City = "k1" }, field: "city"},
		{name: "street one word", mutate: func(d *UserDraft) { d.Address.Street = "broadway" }, field: "street"},
		{name: "short zip", mutate: func(d *UserDraft) { d.Address.Zipcode = "123" }, field: "zipcode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validUserDraft()
			tt.mutate(&d)
			if verrs := fieldErrors(t, d.Validate()); !verrs.Has(tt.field) {
				t.Fatalf("expected %s to fail, got %v", tt.field, verrs.Fields)
			}
		})
	}
}

func TestUserNameDecodesStringForm(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":1,"name":"Leanne Graham","email":"a@b.co"}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Name.Firstname != "Leanne" || u.Name.Lastname != "Graham" {
		t.Fatalf("name = %+v", u.Name)
	}

	if err := json.Unmarshal([]byte(`{"id":2,"name":{"firstname":"kevin","lastname":"ryan"}}`), &u); err != nil {
		t.Fatalf("unmarshal object name: %v", err)
	}
	if u.Name.Firstname != "kevin" || u.Name.Lastname != "ryan" || u.ID != 2 {
		t.Fatalf("user = %+v", u)
	}
}

func TestValidEmail(t *testing.T) {
	if !ValidEmail("Someone@Example.COM") {
		t.Fatal("expected mixed case email to pass")
	}
	if ValidEmail("nope") {
		t.Fatal("expected plain word to fail")
	}
}
