package domain

// Label pairs a document type name with the prototype description whose
// embedding represents it during classification.
type Label struct {
	// Name is the document type assigned when this label wins.
	Name string

	// Prototype is the short description embedded once per process and
	// compared against whole-document embeddings.
	Prototype string
}

// LabelCatalog is the fixed, ordered set of classification labels.
// It is immutable configuration injected at startup so deployments can
// carry their own catalogs.
type LabelCatalog []Label

// DefaultLabelCatalog returns the built-in catalog used when the
// configuration does not provide one.
func DefaultLabelCatalog() LabelCatalog {
	return LabelCatalog{
		// Legal & compliance
		{Name: "Contract", Prototype: "Legal contract between parties with terms and signatures."},
		{Name: "NDA", Prototype: "Non-disclosure agreement restricting sharing confidential information."},
		{Name: "SLA", Prototype: "Service level agreement with performance standards and responsibilities."},
		{Name: "Policy Document", Prototype: "Official rules or guidelines that must be followed."},
		{Name: "Privacy Policy", Prototype: "Explains how personal data is collected and used."},
		{Name: "Certificate", Prototype: "Official document verifying a fact or achievement."},
		// Finance & accounting
		{Name: "Financial Report", Prototype: "Financial results, performance, or analysis."},
		{Name: "Income Statement", Prototype: "Revenue and expenses over a period."},
		{Name: "Balance Sheet", Prototype: "Assets, liabilities, and equity snapshot."},
		{Name: "Invoice", Prototype: "Bill for payment with items and totals."},
		{Name: "Receipt", Prototype: "Acknowledgment of payment received."},
		{Name: "Budget", Prototype: "Planned income and expenses for a period."},
		{Name: "Purchase Order", Prototype: "Authorization to buy goods or services."},
		// Business & operations
		{Name: "Business Proposal", Prototype: "Proposes plans, services, or products to a client."},
		{Name: "Project Report", Prototype: "Project progress, findings, or results."},
		{Name: "Meeting Minutes", Prototype: "Discussion points and decisions from meetings."},
		{Name: "Memo", Prototype: "Formal internal communication message."},
		{Name: "SOP", Prototype: "Standard operating procedure with step-by-step instructions."},
		{Name: "User Manual", Prototype: "Instructions for using a product or system."},
		{Name: "Technical Specification", Prototype: "Detailed technical requirements and designs."},
		{Name: "Log File", Prototype: "System, server, or application log entries."},
		// HR & talent
		{Name: "Resume", Prototype: "Work experience and skills summary."},
		{Name: "Offer Letter", Prototype: "Employment offer details and terms."},
		{Name: "Job Description", Prototype: "Role responsibilities and required qualifications."},
		// Medical & insurance
		{Name: "Medical Report", Prototype: "Medical or health record details and assessments."},
		{Name: "Lab Result", Prototype: "Medical or laboratory test outcomes."},
		{Name: "Insurance Claim", Prototype: "Request to insurer for reimbursement."},
		// Research & education
		{Name: "Research Paper", Prototype: "Academic research findings and analysis."},
		{Name: "White Paper", Prototype: "Authoritative information or solution on a topic."},
		{Name: "Case Study", Prototype: "Detailed analysis of a specific example."},
		// IT & security
		{Name: "Security Policy", Prototype: "Information security rules and standards."},
		{Name: "Incident Report", Prototype: "Security incident details and timeline."},
		{Name: "Release Notes", Prototype: "Software release changes and fixes."},
		// Misc
		{Name: "FAQ", Prototype: "Frequently asked questions and answers."},
		{Name: "Summary", Prototype: "Condensed version of longer content."},
		{Name: "Newsletter", Prototype: "Periodic news or updates for readers."},
		{Name: "Unclassified", Prototype: "Document type cannot be determined."},
	}
}
