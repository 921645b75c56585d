package generator

import "fmt"

const systemPrompt = "You are an expert resume writer and career coach. Always respond with valid JSON only."

const jobPostTemplate = `
Analyze this job posting and generate tailored resume content:

JOB POSTING:
%s

Please provide a JSON response with the following structure:
{
  "bullet_points": [
    "Tailored bullet point emphasizing relevant experience #1",
    "Tailored bullet point emphasizing relevant experience #2",
    "Tailored bullet point emphasizing relevant experience #3",
    "Tailored bullet point emphasizing relevant experience #4",
    "Tailored bullet point emphasizing relevant experience #5"
  ],
  "skills": [
    "Skill 1 mentioned in job posting",
    "Skill 2 mentioned in job posting",
    "Skill 3 mentioned in job posting",
    "Additional relevant skill",
    "Additional relevant skill"
  ],
  "keywords": [
    "Important keyword from job posting",
    "Technical term from job posting",
    "Industry-specific term",
    "Action word from requirements",
    "Qualification mentioned"
  ],
  "achievements": [
    "Quantified achievement relevant to role #1",
    "Quantified achievement relevant to role #2",
    "Quantified achievement relevant to role #3"
  ],
  "summary": "A 2-3 sentence professional summary that aligns with this specific job posting, highlighting the most relevant qualifications and experience."
}

Make sure all content is:
1. Directly relevant to the job posting requirements
2. Uses keywords and terminology from the posting
3. Bullet points are action-oriented and quantifiable when possible
4. Skills match both required and preferred qualifications
5. Summary is compelling and specific to this role
`

// BuildJobPostPrompt renders the user instruction for a job posting
func BuildJobPostPrompt(jobPost string) string {
	return fmt.Sprintf(jobPostTemplate, jobPost)
}
