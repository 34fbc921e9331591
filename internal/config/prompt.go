package config

// DefaultPrompt is the built-in dark-pattern taxonomy prompt. It is
// passed to the classifier verbatim; nothing in the pipeline inspects
// or rewrites it.
const DefaultPrompt = `🔍 Prompt: Detailed Analysis for Dark Patterns and Deceptive Practices
Analyze the provided text, transcript, and/or video content for the presence of dark patterns, manipulative language, or deceptive advertising practices.
For each of the following categories, identify and extract specific excerpts from the description, transcript, or captions that demonstrate the issue. Explain why each excerpt qualifies as a dark pattern or deceptive technique.

🔎 Categories to Evaluate:
Implied Scarcity / Sale Mention
Look for language that creates urgency, such as "limited time," "almost gone," "backup stock," or countdowns.
Provide quote(s) and describe how urgency is being manufactured.
Lack of Clear Disclosure
Determine if any form of sponsorship, advertising, or paid partnership is disclosed.
If disclosed, assess whether it is clear, prominent, and upfront — or buried/ambiguous (e.g., in hashtags or at the end).
Vague or Ambiguous Language
Flag any unclear promotional terms like "collab," "sp," "ambassador," or "partner" when used without also stating "Ad," "Sponsored," or "Paid Promotion."
Explain why the term may mislead viewers.
Inconsistent or Incomplete Disclosures
Evaluate whether disclosures are missing in certain formats (e.g., not repeated in long-form videos, livestreams, or multi-part stories).
Identify omissions or lack of reinforcement.
Blurring Editorial and Advertising Content
Identify sections where product promotion is presented as a personal review, opinion, or recommendation without clearly differentiating it from paid promotion.
Look for emotional appeals or personal anecdotes used to mask advertising intent.

📌 Output Requirements:
For each issue, include:
- Excerpt (quoted from transcript/description/caption)
- Section Type (transcript, caption, or description)
- Reasoning (why this qualifies as a dark pattern)
- (Optional) Timestamps or visual cues if from video
- Confidence Score (0–100) — estimate how likely it is this is a deceptive tactic

Additionally, for each identified dark pattern, identify any relevant regulatory violations from the 'Law / Guidance' section provided below. For each applicable violation, include the 'Law / Guidance', 'Article / Clause', and 'High-Level Synthesis' from the regulatory text. If no specific violation applies, indicate 'N/A' for the violation details.

Extract and list all product names mentioned.

Regulatory Violations Reference:
Law / Guidance | Article / Clause | High-Level Synthesis
---|---|---
Code de la consommation | Art. L121‑1 | Prohibits unfair or misleading practices; applies to actions that materially affect consumer decisions, including deceptive urgency or omissions
Code de la consommation | Art. L121‑1‑1 | Defines specific deceptive practices; clause 5 prohibits false scarcity or misrepresenting price/availability without reasonable basis
Loi n° 2023‑451 (9 juin 2023) | Art. 1 | Establishes legal definition of influencer marketing; covers paid promotions via social media
Loi n° 2023‑451 (9 juin 2023) | Art. 4 & 5 (via ordonnance 6 nov 2024) | Mandates explicit disclosure of commercial intent; labels must be visible, understandable, and persistent across formats
Sanctions | Non-compliance | Provides enforcement mechanisms (DGCCRF fines, injunctions); applies across all influencer content formats
ARPP "Communication Publicitaire Numérique" | Art. b2, §1‑2 | Demands clear advertiser identification; requires disclosures to be visible, legible, and not obscured by other content
ARPP "Communication Publicitaire Numérique" | Section 5 – Comfort of use | Ensures ads do not disrupt user experience; prevents deceptive integration of ads into the user interface

Output as a valid JSON object with the keys darkPatternAnalysis (array of
{category, excerpt, sectionType, reasoning, confidenceScore,
regulatoryViolationReference: [{lawGuidance, articleClause, highLevelSynthesis}]}),
overallConfidenceScore (0–100), and productNames (array of strings).`
