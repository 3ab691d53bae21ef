package seed

var firstNames = []string{
	"Alice", "Bob", "Carol", "David", "Emma", "Frank", "Grace", "Henry",
	"Isabel", "Jack", "Karen", "Liam", "Maria", "Noah", "Olivia", "Peter",
	"Quinn", "Rachel", "Samuel", "Tina", "Umar", "Victoria", "William", "Yuki",
}

var lastNames = []string{
	"Johnson", "Smith", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Martinez", "Lopez", "Wilson", "Anderson", "Taylor", "Thomas", "Moore", "Jackson",
	"Martin", "Lee", "Thompson", "White", "Harris", "Clark", "Lewis", "Tanaka",
}

var emailDomains = []string{
	"example.com", "example.org", "example.net", "mail.example.com",
}

var noteSentences = []string{
	"Prefers contact by email in the morning.",
	"Interested in upgrading to the annual plan next quarter.",
	"Met at the regional trade show, follow up on pricing.",
	"Requested a product demo for their operations team.",
	"Invoice questions resolved, waiting on purchase order.",
	"Referred by an existing customer in the same industry.",
	"Renewal discussion scheduled for the end of the month.",
	"Asked for case studies from similar sized companies.",
}
